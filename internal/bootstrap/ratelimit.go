package bootstrap

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/clinova/platform/config"
	"github.com/clinova/platform/internal/adapters/ratelimit"
	redisadapter "github.com/clinova/platform/internal/adapters/redis"
	httpx "github.com/clinova/platform/internal/http"
	"github.com/clinova/platform/internal/ports"
)

// BuildRateLimiter constructs the limiter for the configured backend. The
// second return value is non-nil for the memory backend: its Run method
// drives the eviction sweep and must be started by the caller.
//
//nolint:ireturn // backend selection happens at runtime.
func BuildRateLimiter(
	cfg config.RateLimitConfig,
	redisClient redis.UniversalClient,
	logger *slog.Logger,
) (ports.RateLimiter, *ratelimit.MemoryLimiter) {
	if cfg.Backend == config.RateLimitBackendRedis && redisClient != nil {
		return redisadapter.NewRateLimiter(redisClient), nil
	}

	mem := ratelimit.NewMemoryLimiter(
		ratelimit.WithSweepInterval(cfg.SweepInterval),
		ratelimit.WithLogger(logger),
	)
	return mem, mem
}

// LimitsByCategory converts the configured budgets into the category map the
// HTTP layer consumes.
func LimitsByCategory(cfg config.RateLimitConfig) map[httpx.RateLimitCategory]ports.Limit {
	return map[httpx.RateLimitCategory]ports.Limit{
		httpx.CategoryAuth:   {MaxRequests: cfg.Auth.MaxRequests, Window: cfg.Auth.Window},
		httpx.CategoryCreate: {MaxRequests: cfg.Create.MaxRequests, Window: cfg.Create.Window},
		httpx.CategoryAPI:    {MaxRequests: cfg.API.MaxRequests, Window: cfg.API.Window},
		httpx.CategoryPublic: {MaxRequests: cfg.Public.MaxRequests, Window: cfg.Public.Window},
	}
}
