package borrows

import (
	"github.com/labstack/echo/v4"
	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/books"
	"github.com/shelfwise/shelfwise/pkg/config"
	"github.com/shelfwise/shelfwise/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the borrow lifecycle routes. Every route requires
// an authenticated user.
func RegisterRoutes(g *echo.Group, db *bun.DB, cfg *config.Config, bookService *books.Service, authMiddleware *auth.Middleware) *Service {
	borrowService := NewService(db, bookService, cfg)

	h := &handler{
		borrowService: borrowService,
	}

	borrows := g.Group("/borrow")
	borrows.Use(authMiddleware.Authenticate)

	canRead := authMiddleware.RequirePermission(models.ResourceBorrows, models.OperationRead)
	canWrite := authMiddleware.RequirePermission(models.ResourceBorrows, models.OperationWrite)
	canApprove := authMiddleware.RequirePermission(models.ResourceBorrows, models.OperationApprove)

	borrows.POST("", h.borrow, canWrite)
	borrows.GET("", h.list, canRead)
	borrows.GET("/user", h.listMine)
	borrows.PUT("/return/:id", h.returnBook, canWrite)

	borrows.POST("/request", h.request, canWrite)
	borrows.GET("/requests", h.listRequests, canRead)
	borrows.PUT("/approve/:id", h.approve, canApprove)
	borrows.PUT("/reject/:id", h.reject, canApprove)

	return borrowService
}
