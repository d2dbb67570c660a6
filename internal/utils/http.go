package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/piresc/dogwalker/internal/pkg/apperror"
	"github.com/piresc/dogwalker/internal/pkg/logger"
)

// ErrorResponse is the failure envelope
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse sends {message, ...fields}
func SuccessResponse(c echo.Context, statusCode int, message string, fields map[string]interface{}) error {
	body := make(map[string]interface{}, len(fields)+1)
	for key, value := range fields {
		body[key] = value
	}
	body["message"] = message
	return c.JSON(statusCode, body)
}

// ErrorResponseHandler sends a failure envelope
func ErrorResponseHandler(c echo.Context, statusCode int, title, message string) error {
	return c.JSON(statusCode, ErrorResponse{
		Error:   title,
		Message: message,
	})
}

// AppErrorResponse renders a classified error. Causes of internal errors
// are logged, never sent to the client.
func AppErrorResponse(c echo.Context, appErr *apperror.Error) error {
	if appErr.Kind == apperror.KindInternal {
		logger.ErrorCtx(c.Request().Context(), "Internal error",
			logger.String("method", c.Request().Method),
			logger.String("path", c.Request().URL.Path),
			logger.String("message", appErr.Message),
			logger.Err(appErr.Err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal server error",
			Message: "Something went wrong",
		})
	}
	return c.JSON(appErr.Kind.HTTPStatus(), ErrorResponse{
		Error:   appErr.Title,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

// HTTPErrorHandler is installed as echo's error handler so every error
// returned by a handler or middleware leaves through the same envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	appErr := toAppError(err, c)
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(appErr.Kind.HTTPStatus())
		return
	}
	if writeErr := AppErrorResponse(c, appErr); writeErr != nil {
		logger.Error("Failed to write error response", logger.Err(writeErr))
	}
}

func toAppError(err error, c echo.Context) *apperror.Error {
	if appErr, ok := apperror.As(err); ok {
		return appErr
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.Code {
		case http.StatusNotFound:
			return apperror.NotFound("Endpoint not found",
				fmt.Sprintf("The route %s %s does not exist", c.Request().Method, c.Request().URL.Path))
		case http.StatusMethodNotAllowed:
			return apperror.New(apperror.KindNotFound, "Endpoint not found",
				fmt.Sprintf("The route %s %s does not exist", c.Request().Method, c.Request().URL.Path))
		case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
			return apperror.MalformedInput("Invalid data", "The request body could not be parsed")
		case http.StatusUnauthorized:
			return apperror.Unauthenticated("Unauthorized", fmt.Sprint(httpErr.Message))
		case http.StatusForbidden:
			return apperror.Forbidden("Forbidden", fmt.Sprint(httpErr.Message))
		case http.StatusTooManyRequests:
			return apperror.RateLimited(fmt.Sprint(httpErr.Message))
		case http.StatusServiceUnavailable:
			return apperror.New(apperror.KindUnavailable, "Service unavailable", fmt.Sprint(httpErr.Message))
		}
		return apperror.Internal(http.StatusText(httpErr.Code), err)
	}

	return apperror.Internal("unhandled error", err)
}
