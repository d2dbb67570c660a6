package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/piresc/dogwalker/internal/pkg/apperror"
	appctx "github.com/piresc/dogwalker/internal/pkg/context"
	"github.com/piresc/dogwalker/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPanicRecoveryMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		panicValue interface{}
		panicType  string
	}{
		{"string panic", "test panic message", "string"},
		{"error panic", errors.New("nil map write"), "*errors.errorString"},
		{"int panic", 42, "int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			mw := PanicRecoveryMiddleware(logger.NewFromCore(core))

			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/test", nil), httptest.NewRecorder())

			err := mw(func(c echo.Context) error {
				panic(tt.panicValue)
			})(c)

			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, apperror.KindInternal, appErr.Kind)

			require.Equal(t, 1, logs.Len())
			fields := logs.All()[0].ContextMap()
			assert.Equal(t, tt.panicType, fields["panic_type"])
			assert.Equal(t, "/api/test", fields["path"])
			assert.NotEmpty(t, fields["stack_trace"])
		})
	}
}

func TestPanicRecoveryMiddleware_NoPanic(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	mw := PanicRecoveryMiddleware(logger.NewFromCore(core))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	err := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "fine")
	})(c)

	assert.NoError(t, err)
	assert.Equal(t, "fine", rec.Body.String())
	assert.Equal(t, 0, logs.Len())
}

func TestPanicRecoveryMiddleware_RequiresLogger(t *testing.T) {
	assert.Panics(t, func() { PanicRecoveryMiddleware(nil) })
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(RequestIDMiddleware())
	var seen string
	e.GET("/", func(c echo.Context) error {
		seen = appctx.GetRequestID(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	t.Run("propagates header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderXRequestID, "req-1")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, "req-1", rec.Header().Get(echo.HeaderXRequestID))
		assert.Equal(t, "req-1", seen)
	})

	t.Run("generates when missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
		assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), seen)
	})
}
