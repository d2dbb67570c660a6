package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/piresc/dogwalker/internal/pkg/middleware"
	"github.com/piresc/dogwalker/internal/utils"
	"github.com/piresc/dogwalker/services/users"
)

// UserHandler handles HTTP requests for user resources
type UserHandler struct {
	userUC users.UserUC
}

// NewUserHandler creates a new user handler
func NewUserHandler(userUC users.UserUC) *UserHandler {
	return &UserHandler{userUC: userUC}
}

// GetUserProfile handles GET /api/users/:userId/profile. Ownership is
// enforced by the route middleware.
func (h *UserHandler) GetUserProfile(c echo.Context) error {
	user, err := h.userUC.GetProfile(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, http.StatusOK, "Profile retrieved successfully", map[string]interface{}{
		"user": user,
	})
}

// WalkerDashboard handles GET /api/walkers/me
func (h *UserHandler) WalkerDashboard(c echo.Context) error {
	auth, ok := middleware.AuthFromEcho(c)
	if !ok {
		return errNoAuth
	}

	user, err := h.userUC.GetProfile(c.Request().Context(), auth.SubjectID)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, http.StatusOK, "Walker profile retrieved successfully", map[string]interface{}{
		"walker": user,
	})
}

// Probe handles GET /api/test and reports whether the caller was resolved
func (h *UserHandler) Probe(c echo.Context) error {
	fields := map[string]interface{}{"authenticated": false}
	if auth, ok := middleware.AuthFromEcho(c); ok {
		fields["authenticated"] = true
		fields["user"] = auth.Identity
	}
	return utils.SuccessResponse(c, http.StatusOK, "API working correctly", fields)
}
