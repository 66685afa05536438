package auth

import (
	"github.com/labstack/echo/v4"
	"github.com/shelfwise/shelfwise/pkg/config"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all auth routes and returns the service and
// middleware the other route groups authenticate with.
func RegisterRoutes(g *echo.Group, db *bun.DB, cfg *config.Config) (*Service, *Middleware) {
	authService := NewService(db, cfg)
	authMiddleware := NewMiddleware(authService)

	h := &handler{
		authService: authService,
		frontendURL: cfg.FrontendURL,
		production:  cfg.IsProduction(),
	}

	auth := g.Group("/auth")
	auth.POST("/login", h.login)
	auth.POST("/register", h.register, authMiddleware.AuthenticateOptional)
	auth.POST("/logout", h.logout, authMiddleware.Authenticate)
	auth.GET("/profile", h.profile, authMiddleware.Authenticate)

	auth.POST("/forgot-password", h.forgotPassword)
	auth.GET("/validate-reset-token/:token", h.validateResetToken)
	auth.POST("/reset-password", h.resetPassword)

	return authService, authMiddleware
}
