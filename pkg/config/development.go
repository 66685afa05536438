package config

import (
	"os"
	"strconv"
)

const (
	developmentDatabasePath = "./tmp/shelfwise.sqlite"
	developmentJWTSecret    = "shelfwise-development-secret"
)

// loadDevelopmentConfig fills in what a local checkout needs to boot without
// a config file. Explicit settings always win.
func loadDevelopmentConfig(cfg *Config) {
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		cfg.ServerPort = port
	}
	if cfg.DatabaseFilePath == "" {
		cfg.DatabaseFilePath = developmentDatabasePath
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = developmentJWTSecret
	}
	cfg.DatabaseDebug = true
	cfg.ServerHost = "127.0.0.1"
}
