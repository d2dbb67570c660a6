package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/piresc/dogwalker/internal/pkg/jwt"
	"github.com/piresc/dogwalker/internal/pkg/middleware"
	"github.com/piresc/dogwalker/internal/pkg/models"
	"github.com/piresc/dogwalker/internal/pkg/ratelimit"
	"github.com/piresc/dogwalker/internal/utils"
	userhttp "github.com/piresc/dogwalker/services/users/handler/http"
	"github.com/piresc/dogwalker/services/users/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routesFixture struct {
	echo   *echo.Echo
	codec  *jwt.Codec
	userUC *mocks.MockUserUC
}

var fixtureIdentities = map[string]models.Identity{
	"owner-1":  {ID: "owner-1", Active: true, Role: models.RoleOwner},
	"walker-1": {ID: "walker-1", Active: true, Role: models.RoleWalker},
}

func newRoutesFixture(t *testing.T, rateLimit int) *routesFixture {
	ctrl := gomock.NewController(t)
	userUC := mocks.NewMockUserUC(ctrl)
	repo := mocks.NewMockUserRepo(ctrl)
	repo.EXPECT().GetIdentity(gomock.Any(), gomock.Any()).AnyTimes().
		DoAndReturn(func(_ interface{}, id string) (*models.Identity, error) {
			identity, ok := fixtureIdentities[id]
			if !ok {
				return nil, fmt.Errorf("get identity: %w", models.ErrUserNotFound)
			}
			return &identity, nil
		})

	codec := jwt.NewCodec(models.JWTConfig{Secret: "routes-secret"})
	limiter, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), rateLimit, time.Minute)
	require.NoError(t, err)

	e := echo.New()
	e.Validator = utils.NewValidator()
	e.HTTPErrorHandler = utils.HTTPErrorHandler

	h := NewHandler(
		userhttp.NewAuthHandler(userUC),
		userhttp.NewUserHandler(userUC),
		middleware.NewAuthGate(codec, repo),
		middleware.RateLimiterMiddleware(limiter, "auth"),
	)
	h.RegisterRoutes(e)

	return &routesFixture{echo: e, codec: codec, userUC: userUC}
}

func (f *routesFixture) token(t *testing.T, subject string) string {
	t.Helper()
	token, _, err := f.codec.Issue(subject, time.Hour)
	require.NoError(t, err)
	return token
}

func (f *routesFixture) do(t *testing.T, method, path, token, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.7")
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec.Code, decoded
}

func TestRoutes_ProtectedRequireToken(t *testing.T) {
	f := newRoutesFixture(t, 10)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/auth/profile"},
		{http.MethodPut, "/api/auth/profile"},
		{http.MethodPut, "/api/auth/change-password"},
		{http.MethodGet, "/api/auth/verify"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodGet, "/api/users/owner-1/profile"},
		{http.MethodGet, "/api/walkers/me"},
	} {
		code, body := f.do(t, route.method, route.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, code, route.path)
		assert.Equal(t, "Token required", body["error"], route.path)
	}
}

func TestRoutes_Verify(t *testing.T) {
	f := newRoutesFixture(t, 10)

	code, body := f.do(t, http.MethodGet, "/api/auth/verify", f.token(t, "owner-1"), "")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "owner-1", body["user"].(map[string]interface{})["id"])
}

func TestRoutes_UnknownSubject(t *testing.T) {
	f := newRoutesFixture(t, 10)

	code, body := f.do(t, http.MethodGet, "/api/auth/verify", f.token(t, "ghost"), "")

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "User not found", body["error"])
}

func TestRoutes_Ownership(t *testing.T) {
	f := newRoutesFixture(t, 10)
	token := f.token(t, "owner-1")

	code, body := f.do(t, http.MethodGet, "/api/users/walker-1/profile", token, "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Access denied", body["error"])

	f.userUC.EXPECT().GetProfile(gomock.Any(), "owner-1").Return(&models.User{ID: "owner-1"}, nil)
	code, _ = f.do(t, http.MethodGet, "/api/users/owner-1/profile", token, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestRoutes_WalkerOnly(t *testing.T) {
	f := newRoutesFixture(t, 10)

	code, body := f.do(t, http.MethodGet, "/api/walkers/me", f.token(t, "owner-1"), "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, body["message"], "WALKER")

	f.userUC.EXPECT().GetProfile(gomock.Any(), "walker-1").
		Return(&models.User{ID: "walker-1", UserType: models.RoleWalker}, nil)
	code, _ = f.do(t, http.MethodGet, "/api/walkers/me", f.token(t, "walker-1"), "")
	assert.Equal(t, http.StatusOK, code)
}

func TestRoutes_ProbeAnonymousAndAuthenticated(t *testing.T) {
	f := newRoutesFixture(t, 10)

	code, body := f.do(t, http.MethodGet, "/api/test", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["authenticated"])

	code, body = f.do(t, http.MethodGet, "/api/test", "not-a-token", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["authenticated"])

	code, body = f.do(t, http.MethodGet, "/api/test", f.token(t, "walker-1"), "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["authenticated"])
}

func TestRoutes_LoginRateLimited(t *testing.T) {
	f := newRoutesFixture(t, 2)
	f.userUC.EXPECT().Login(gomock.Any(), gomock.Any()).Times(2).
		Return(&models.AuthResponse{User: &models.User{ID: "owner-1"}, Token: "token"}, nil)

	payload := `{"email":"a@example.com","password":"secret1"}`
	for i := 0; i < 2; i++ {
		code, _ := f.do(t, http.MethodPost, "/api/auth/login", "", payload)
		require.Equal(t, http.StatusOK, code)
	}

	code, body := f.do(t, http.MethodPost, "/api/auth/login", "", payload)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "Too many requests", body["error"])

	// the auth test route is not rate limited
	code, _ = f.do(t, http.MethodGet, "/api/auth/test", "", "")
	assert.Equal(t, http.StatusOK, code)
}
