package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays values from the environment, loading a .env file
// first when one exists. A missing .env is not an error.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("TOKEN_SECRET"); v != "" {
		cfg.TokenSecret = v
	}
	if v := os.Getenv("TOKEN_VALIDITY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TokenValidity = d
		}
	}
	if v := os.Getenv("ALLOW_ANONYMOUS_DELETE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AllowAnonymousDelete = b
		}
	}
}
