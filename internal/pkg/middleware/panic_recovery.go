package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/piresc/dogwalker/internal/pkg/apperror"
	"github.com/piresc/dogwalker/internal/pkg/constants"
	"github.com/piresc/dogwalker/internal/pkg/logger"
)

// PanicRecoveryMiddleware turns a panic in a handler into an Internal error
// rendered by the error handler, logging the stack trace.
func PanicRecoveryMiddleware(zapLogger *logger.ZapLogger) echo.MiddlewareFunc {
	if zapLogger == nil {
		panic("PanicRecoveryMiddleware requires a logger")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				userID := "anonymous"
				if uid := c.Get(constants.EchoKeyUserID); uid != nil {
					userID = fmt.Sprintf("%v", uid)
				}
				panicErr := fmt.Errorf("panic: %v", r)

				if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
					txn.NoticeError(newrelic.Error{
						Message: panicErr.Error(),
						Class:   "PanicError",
					})
				}

				zapLogger.Error("Panic recovered during request processing",
					logger.Any("panic_value", r),
					logger.String("panic_type", fmt.Sprintf("%T", r)),
					logger.String("stack_trace", string(debug.Stack())),
					logger.String("method", c.Request().Method),
					logger.String("path", c.Request().URL.Path),
					logger.String("client_ip", c.RealIP()),
					logger.String("user_id", userID),
					logger.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				)

				err = apperror.Internal("panic recovered", panicErr)
			}()

			return next(c)
		}
	}
}
