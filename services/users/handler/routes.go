package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/piresc/dogwalker/internal/pkg/middleware"
	"github.com/piresc/dogwalker/internal/pkg/models"
	"github.com/piresc/dogwalker/services/users/handler/http"
)

// Handler coordinates the HTTP handlers of the users service
type Handler struct {
	authHandler *http.AuthHandler
	userHandler *http.UserHandler
	gate        *middleware.AuthGate
	// rateLimit guards the public auth routes; nil disables it
	rateLimit echo.MiddlewareFunc
}

// NewHandler creates and initializes all handlers
func NewHandler(
	authHandler *http.AuthHandler,
	userHandler *http.UserHandler,
	gate *middleware.AuthGate,
	rateLimit echo.MiddlewareFunc,
) *Handler {
	return &Handler{
		authHandler: authHandler,
		userHandler: userHandler,
		gate:        gate,
		rateLimit:   rateLimit,
	}
}

// RegisterRoutes registers the account routes
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/test", h.userHandler.Probe, h.gate.OptionalAuth())

	authGroup := api.Group("/auth")
	var public []echo.MiddlewareFunc
	if h.rateLimit != nil {
		public = append(public, h.rateLimit)
	}
	authGroup.POST("/register", h.authHandler.Register, public...)
	authGroup.POST("/login", h.authHandler.Login, public...)
	authGroup.GET("/test", h.authHandler.Routes)

	requireAuth := h.gate.RequireAuth()
	authGroup.GET("/profile", h.authHandler.GetProfile, requireAuth)
	authGroup.PUT("/profile", h.authHandler.UpdateProfile, requireAuth)
	authGroup.PUT("/change-password", h.authHandler.ChangePassword, requireAuth)
	authGroup.GET("/verify", h.authHandler.Verify, requireAuth)
	authGroup.POST("/logout", h.authHandler.Logout, requireAuth)

	api.GET("/users/:userId/profile", h.userHandler.GetUserProfile,
		requireAuth, h.gate.RequireOwnership("userId"))
	api.GET("/walkers/me", h.userHandler.WalkerDashboard,
		requireAuth, h.gate.RequireRole(models.RoleWalker))
}
