package roles

import (
	"github.com/labstack/echo/v4"
	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all role routes.
func RegisterRoutes(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	roleService := NewService(db)

	h := &handler{
		roleService: roleService,
	}

	roles := g.Group("/roles")
	roles.Use(authMiddleware.Authenticate)
	roles.Use(authMiddleware.RequirePermission(models.ResourceRoles, models.OperationRead))

	roles.GET("", h.list)
	roles.GET("/:id", h.retrieve)

	return roleService
}
