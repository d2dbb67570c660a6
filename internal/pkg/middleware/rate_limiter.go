package middleware

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/piresc/dogwalker/internal/pkg/apperror"
	"github.com/piresc/dogwalker/internal/pkg/ratelimit"
)

// Rate limit response headers
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimiterMiddleware admits requests per client address using limiter.
// scope separates the budgets of route groups sharing one limiter.
func RateLimiterMiddleware(limiter *ratelimit.Limiter, scope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := scope + ":" + c.RealIP()

			result, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				return apperror.Internal("rate limiter unavailable", err)
			}

			header := c.Response().Header()
			header.Set(HeaderRateLimitLimit, strconv.Itoa(result.Limit))
			header.Set(HeaderRateLimitRemaining, strconv.Itoa(result.Remaining))
			header.Set(HeaderRateLimitReset, strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := ceilSeconds(result.RetryAfter)
				header.Set(HeaderRetryAfter, strconv.FormatInt(retryAfter, 10))
				return apperror.RateLimited(fmt.Sprintf("You have exceeded the limit of %d requests per %s",
					result.Limit, describeWindow(limiter.Window()))).
					WithDetails(map[string]interface{}{
						"windowSeconds":     int64(limiter.Window().Seconds()),
						"retryAfterSeconds": retryAfter,
					})
			}

			return next(c)
		}
	}
}

func ceilSeconds(d time.Duration) int64 {
	s := int64(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

func describeWindow(window time.Duration) string {
	switch {
	case window%time.Hour == 0:
		return plural(int64(window/time.Hour), "hour")
	case window%time.Minute == 0:
		return plural(int64(window/time.Minute), "minute")
	case window%time.Second == 0:
		return plural(int64(window/time.Second), "second")
	default:
		return window.String()
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
