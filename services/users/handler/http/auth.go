package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/piresc/dogwalker/internal/pkg/apperror"
	"github.com/piresc/dogwalker/internal/pkg/middleware"
	"github.com/piresc/dogwalker/internal/pkg/models"
	"github.com/piresc/dogwalker/internal/utils"
	"github.com/piresc/dogwalker/services/users"
)

// AuthHandler handles the /api/auth routes
type AuthHandler struct {
	userUC users.UserUC
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userUC users.UserUC) *AuthHandler {
	return &AuthHandler{userUC: userUC}
}

var errBadPayload = apperror.MalformedInput("Invalid data", "The request body could not be parsed")

// bindAndValidate decodes the JSON body into req and runs the echo validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errBadPayload
	}
	return c.Validate(req)
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.userUC.Register(c.Request().Context(), &req)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, http.StatusCreated, "User registered successfully", map[string]interface{}{
		"user":      resp.User,
		"token":     resp.Token,
		"expiresAt": resp.ExpiresAt,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.userUC.Login(c.Request().Context(), &req)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, http.StatusOK, "Login successful", map[string]interface{}{
		"user":      resp.User,
		"token":     resp.Token,
		"expiresAt": resp.ExpiresAt,
	})
}

// GetProfile handles GET /api/auth/profile
func (h *AuthHandler) GetProfile(c echo.Context) error {
	auth, ok := middleware.AuthFromEcho(c)
	if !ok {
		return errNoAuth
	}

	user, err := h.userUC.GetProfile(c.Request().Context(), auth.SubjectID)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, http.StatusOK, "Profile retrieved successfully", map[string]interface{}{
		"user": user,
	})
}

// UpdateProfile handles PUT /api/auth/profile
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	auth, ok := middleware.AuthFromEcho(c)
	if !ok {
		return errNoAuth
	}

	var req models.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userUC.UpdateProfile(c.Request().Context(), auth.SubjectID, &req)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, http.StatusOK, "Profile updated successfully", map[string]interface{}{
		"user": user,
	})
}

// ChangePassword handles PUT /api/auth/change-password
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	auth, ok := middleware.AuthFromEcho(c)
	if !ok {
		return errNoAuth
	}

	var req models.ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.userUC.ChangePassword(c.Request().Context(), auth.SubjectID, &req); err != nil {
		return err
	}

	return utils.SuccessResponse(c, http.StatusOK, "Password updated successfully", nil)
}

// Verify handles GET /api/auth/verify
func (h *AuthHandler) Verify(c echo.Context) error {
	auth, ok := middleware.AuthFromEcho(c)
	if !ok {
		return errNoAuth
	}

	return utils.SuccessResponse(c, http.StatusOK, "Valid token", map[string]interface{}{
		"user": auth.Identity,
	})
}

// Logout handles POST /api/auth/logout. Credentials are stateless, so the
// client is expected to discard its token.
func (h *AuthHandler) Logout(c echo.Context) error {
	return utils.SuccessResponse(c, http.StatusOK, "Logout successful", map[string]interface{}{
		"note": "The token must be discarded on the client side",
	})
}

// Routes handles GET /api/auth/test
func (h *AuthHandler) Routes(c echo.Context) error {
	return utils.SuccessResponse(c, http.StatusOK, "Auth routes working!", map[string]interface{}{
		"endpoints": []string{
			"POST /api/auth/register - Register a user",
			"POST /api/auth/login - Log in",
			"GET /api/auth/profile - Get profile (requires auth)",
			"PUT /api/auth/profile - Update profile (requires auth)",
			"PUT /api/auth/change-password - Change password (requires auth)",
			"GET /api/auth/verify - Verify token (requires auth)",
			"POST /api/auth/logout - Logout (requires auth)",
		},
	})
}

var errNoAuth = apperror.Unauthenticated("Authentication required", "You must be authenticated to access this resource")
