package http

import (
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/piresc/dogwalker/internal/pkg/apperror"
	"github.com/piresc/dogwalker/internal/pkg/models"
	"github.com/piresc/dogwalker/services/users/mocks"
	"github.com/stretchr/testify/assert"
)

func TestGetUserProfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockUserUC := mocks.NewMockUserUC(ctrl)
	handler := NewUserHandler(mockUserUC)
	mockUserUC.EXPECT().GetProfile(gomock.Any(), "u-1").Return(&models.User{ID: "u-1"}, nil)

	code, body := serveAt(newTestEcho(), http.MethodGet, "/api/users/:userId/profile", "/api/users/u-1/profile",
		handler.GetUserProfile, "", walkerAuth)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "u-1", body["user"].(map[string]interface{})["id"])
}

func TestWalkerDashboard(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockUserUC := mocks.NewMockUserUC(ctrl)
		handler := NewUserHandler(mockUserUC)
		mockUserUC.EXPECT().GetProfile(gomock.Any(), "u-1").Return(&models.User{ID: "u-1", UserType: models.RoleWalker}, nil)

		code, body := serve(newTestEcho(), http.MethodGet, "/api/walkers/me", handler.WalkerDashboard, "", walkerAuth)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "WALKER", body["walker"].(map[string]interface{})["userType"])
	})

	t.Run("vanished", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockUserUC := mocks.NewMockUserUC(ctrl)
		handler := NewUserHandler(mockUserUC)
		mockUserUC.EXPECT().GetProfile(gomock.Any(), "u-1").
			Return(nil, apperror.NotFound("User not found", "Could not find the user profile"))

		code, body := serve(newTestEcho(), http.MethodGet, "/api/walkers/me", handler.WalkerDashboard, "", walkerAuth)

		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "User not found", body["error"])
	})
}

func TestProbe(t *testing.T) {
	ctrl := gomock.NewController(t)
	handler := NewUserHandler(mocks.NewMockUserUC(ctrl))

	code, body := serve(newTestEcho(), http.MethodGet, "/api/test", handler.Probe, "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["authenticated"])

	code, body = serve(newTestEcho(), http.MethodGet, "/api/test", handler.Probe, "", walkerAuth)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["authenticated"])
}
