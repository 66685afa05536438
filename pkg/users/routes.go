package users

import (
	"github.com/labstack/echo/v4"
	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all user routes.
func RegisterRoutes(g *echo.Group, db *bun.DB, authService *auth.Service, authMiddleware *auth.Middleware) *Service {
	userService := NewService(db, authService)

	h := &handler{
		userService: userService,
		authService: authService,
	}

	users := g.Group("/user")

	// All user routes require authentication
	users.Use(authMiddleware.Authenticate)

	users.GET("", h.list, authMiddleware.RequirePermission(models.ResourceUsers, models.OperationRead))
	users.POST("", h.create, authMiddleware.RequirePermission(models.ResourceUsers, models.OperationWrite))
	users.DELETE("/:id", h.deactivate, authMiddleware.RequirePermission(models.ResourceUsers, models.OperationWrite))

	// Users can always read and update their own account; the handlers check
	// permissions for anyone else's.
	users.GET("/:id", h.retrieve)
	users.PUT("/:id", h.update)

	return userService
}
