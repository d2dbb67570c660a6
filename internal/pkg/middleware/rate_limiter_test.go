package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/piresc/dogwalker/internal/pkg/ratelimit"
	"github.com/piresc/dogwalker/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration, time.Time) (*ratelimit.Result, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) Reset(context.Context, string) error { return nil }

func newRateLimitedEcho(t *testing.T, limiter *ratelimit.Limiter) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = utils.HTTPErrorHandler
	e.POST("/api/auth/login", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, RateLimiterMiddleware(limiter, "auth"))
	return e
}

func hit(e *echo.Echo, clientIP string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, clientIP)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterMiddleware(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	limiter, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), 3, 15*time.Minute, ratelimit.WithClock(clock))
	require.NoError(t, err)
	e := newRateLimitedEcho(t, limiter)

	for i := 1; i <= 3; i++ {
		rec := hit(e, "203.0.113.7")
		require.Equal(t, http.StatusNoContent, rec.Code, "request %d", i)
		assert.Equal(t, "3", rec.Header().Get(HeaderRateLimitLimit))
		assert.Equal(t, []string{"2", "1", "0"}[i-1], rec.Header().Get(HeaderRateLimitRemaining))
	}

	now = now.Add(90 * time.Second)
	rec := hit(e, "203.0.113.7")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get(HeaderRateLimitRemaining))
	assert.Equal(t, "810", rec.Header().Get(HeaderRetryAfter))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Too many requests", body["error"])
	assert.Equal(t, "You have exceeded the limit of 3 requests per 15 minutes", body["message"])
	details := body["details"].(map[string]interface{})
	assert.Equal(t, float64(900), details["windowSeconds"])
	assert.Equal(t, float64(810), details["retryAfterSeconds"])

	// another client has its own budget
	assert.Equal(t, http.StatusNoContent, hit(e, "198.51.100.1").Code)

	now = now.Add(810 * time.Second)
	assert.Equal(t, http.StatusNoContent, hit(e, "203.0.113.7").Code)
}

func TestRateLimiterMiddleware_StoreFailure(t *testing.T) {
	limiter, err := ratelimit.NewLimiter(failingStore{}, 1, time.Minute)
	require.NoError(t, err)
	e := newRateLimitedEcho(t, limiter)

	rec := hit(e, "203.0.113.7")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestCeilSeconds(t *testing.T) {
	assert.Equal(t, int64(1), ceilSeconds(0))
	assert.Equal(t, int64(1), ceilSeconds(200*time.Millisecond))
	assert.Equal(t, int64(2), ceilSeconds(1001*time.Millisecond))
	assert.Equal(t, int64(60), ceilSeconds(time.Minute))
}

func TestDescribeWindow(t *testing.T) {
	assert.Equal(t, "15 minutes", describeWindow(15*time.Minute))
	assert.Equal(t, "hour", describeWindow(time.Hour))
	assert.Equal(t, "30 seconds", describeWindow(30*time.Second))
	assert.Equal(t, "1.5s", describeWindow(1500*time.Millisecond))
}
