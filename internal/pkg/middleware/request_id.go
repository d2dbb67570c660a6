package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	appctx "github.com/piresc/dogwalker/internal/pkg/context"
)

// RequestIDMiddleware propagates X-Request-ID, generating one when absent,
// and stores it in the request context for logging
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			c.Response().Header().Set(echo.HeaderXRequestID, requestID)
			ctx := appctx.WithRequestID(c.Request().Context(), requestID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
