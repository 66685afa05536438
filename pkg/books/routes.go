package books

import (
	"github.com/labstack/echo/v4"
	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/config"
	"github.com/shelfwise/shelfwise/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers book routes. Reading the catalog is public.
func RegisterRoutes(g *echo.Group, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) *Service {
	bookService := NewService(db, cfg)

	h := &handler{
		bookService: bookService,
	}

	books := g.Group("/book")

	books.GET("", h.list)
	books.GET("/:id", h.retrieve)

	canWrite := []echo.MiddlewareFunc{
		authMiddleware.Authenticate,
		authMiddleware.RequirePermission(models.ResourceBooks, models.OperationWrite),
	}
	books.POST("", h.create, canWrite...)
	books.PUT("/:id", h.update, canWrite...)
	books.DELETE("/:id", h.delete, canWrite...)

	return bookService
}
