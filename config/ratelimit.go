package config

import "time"

// RateLimitBackend selects which limiter implementation the gateway uses.
type RateLimitBackend string

const (
	// RateLimitBackendMemory keeps counters in-process. Per instance.
	RateLimitBackendMemory RateLimitBackend = "memory"
	// RateLimitBackendRedis keeps counters in Redis, shared across instances.
	RateLimitBackendRedis RateLimitBackend = "redis"
)

// RateLimitRule is a named request budget over a fixed window.
type RateLimitRule struct {
	MaxRequests int           `env:"MAX_REQUESTS"`
	Window      time.Duration `env:"WINDOW"`
}

// RateLimitConfig contains rate limiter configuration. Each category covers
// a class of endpoints; the wrapper and gateway pick a category per route.
type RateLimitConfig struct {
	Backend RateLimitBackend `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`

	// SweepInterval is how often the in-memory limiter evicts expired
	// windows. Only used with the memory backend.
	SweepInterval time.Duration `env:"RATE_LIMIT_SWEEP_INTERVAL" envDefault:"1m"`

	// Auth covers login and token endpoints.
	Auth RateLimitRule `envPrefix:"RATE_LIMIT_AUTH_"`
	// Create covers resource-creating endpoints.
	Create RateLimitRule `envPrefix:"RATE_LIMIT_CREATE_"`
	// API covers general authenticated API traffic.
	API RateLimitRule `envPrefix:"RATE_LIMIT_API_"`
	// Public covers unauthenticated page traffic, keyed by client address.
	Public RateLimitRule `envPrefix:"RATE_LIMIT_PUBLIC_"`
}

// Sanitize applies guardrails to rate limiter configuration values.
func (r *RateLimitConfig) Sanitize() {
	if r.Backend != RateLimitBackendMemory && r.Backend != RateLimitBackendRedis {
		r.Backend = RateLimitBackendMemory
	}
	if r.SweepInterval <= 0 {
		r.SweepInterval = time.Minute
	}
	sanitizeRule(&r.Auth, 10, time.Minute)
	sanitizeRule(&r.Create, 30, time.Minute)
	sanitizeRule(&r.API, 300, time.Minute)
	sanitizeRule(&r.Public, 600, time.Minute)
}

func sanitizeRule(rule *RateLimitRule, maxRequests int, window time.Duration) {
	if rule.MaxRequests <= 0 {
		rule.MaxRequests = maxRequests
	}
	if rule.Window <= 0 {
		rule.Window = window
	}
}
