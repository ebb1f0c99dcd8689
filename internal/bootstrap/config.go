package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/clinova/platform/config"
)

// InitLogger initializes the structured logger.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()

	if err := validateConfig(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// validateConfig enforces the production guardrails that Sanitize cannot
// express as value clamping.
func validateConfig(cfg *config.AppConfig) error {
	if !cfg.IsProduction() {
		return nil
	}
	if cfg.Auth.Mode == config.AuthModeMock {
		return errors.New("mock auth mode is not allowed in production")
	}
	if cfg.Auth.TestIdentityEnabled {
		return errors.New("synthetic test identities are not allowed in production")
	}
	return nil
}
