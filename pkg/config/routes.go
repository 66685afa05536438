package config

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers the public config routes.
func RegisterRoutes(g *echo.Group, cfg *Config) {
	h := &handler{config: cfg}

	configGroup := g.Group("/config")
	configGroup.GET("/lending", h.lendingPolicy)
}
