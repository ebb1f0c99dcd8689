package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Authentication and session configuration
//   - database.go: Database and Redis configuration
//   - http.go: HTTP server configuration
//   - ratelimit.go: Rate limiter configuration
type AppConfig struct {
	// Environment names the deployment environment (production, staging,
	// development). Several guardrails key off production: dev auth refuses
	// to start and synthetic test identities are ignored.
	Environment string `env:"APP_ENV" envDefault:"development"`

	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Authentication configuration
	Auth AuthConfig

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server and gateway configuration
	HTTP HTTPConfig

	// Rate limiter configuration
	RateLimit RateLimitConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	if c.Environment == "" {
		c.Environment = "development"
	}

	c.HTTP.Sanitize()
	c.RateLimit.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// IsProduction reports whether the deployment environment is production.
// Prod-only guardrails (dev auth refusal, synthetic identity suppression)
// key off this.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// This is called by Sanitize() to ensure IsDev is set correctly.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
