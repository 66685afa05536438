// Package testutils provides test-only API endpoints.
// These routes are only registered when ENVIRONMENT=test.
package testutils

import (
	"github.com/labstack/echo/v4"
	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/books"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers test-only routes.
// These endpoints should ONLY be registered in test environments.
func RegisterRoutes(g *echo.Group, db *bun.DB, authService *auth.Service, bookService *books.Service) {
	h := &handler{db: db, authService: authService, bookService: bookService}

	test := g.Group("/test")
	test.POST("/users", h.createUser)
	test.POST("/books", h.createBook)
	test.DELETE("/data", h.deleteAll)
}
