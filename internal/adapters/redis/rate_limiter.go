package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinova/platform/internal/ports"
)

// checkScript applies the whole read/modify/write atomically on the Redis
// side, so two concurrent requests cannot both observe count < max and both
// increment past the limit. A rejected request is not charged.
var checkScript = redis.NewScript(`
local key = KEYS[1]
local max = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])

local current = tonumber(redis.call('GET', key) or '0')
if current >= max then
	return {0, 0, redis.call('PTTL', key)}
end

local count = redis.call('INCR', key)
if count == 1 then
	redis.call('PEXPIRE', key, window_ms)
end
return {1, max - count, redis.call('PTTL', key)}
`)

// RateLimiter is a Redis-backed limiter for multi-instance deployments where
// limits must be global rather than per process. Keys expire with their
// window, so no sweep is needed.
type RateLimiter struct {
	client redis.UniversalClient
	prefix string
}

// NewRateLimiter creates a Redis-backed rate limiter.
func NewRateLimiter(client redis.UniversalClient) *RateLimiter {
	return &RateLimiter{client: client, prefix: "ratelimit:"}
}

var _ ports.RateLimiter = (*RateLimiter)(nil)

func (l *RateLimiter) Check(ctx context.Context, identifier string, limit ports.Limit) (ports.Decision, error) {
	if identifier == "" {
		return ports.Decision{}, errors.New("rate limit identifier cannot be empty")
	}

	key := l.prefix + identifier
	res, err := checkScript.Run(ctx, l.client, []string{key},
		limit.MaxRequests, limit.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return ports.Decision{}, fmt.Errorf("rate limit check: %w", err)
	}
	if len(res) != 3 {
		return ports.Decision{}, fmt.Errorf("rate limit check: unexpected script reply of length %d", len(res))
	}

	allowed := res[0] == 1
	remaining := int(res[1])
	ttl := time.Duration(res[2]) * time.Millisecond
	if ttl < 0 {
		ttl = limit.Window
	}

	decision := ports.Decision{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   time.Now().Add(ttl),
	}
	if !allowed {
		decision.RetryAfter = ceilToSecond(ttl)
	}
	return decision, nil
}

func ceilToSecond(d time.Duration) time.Duration {
	secs := d / time.Second
	if d%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs * time.Second
}
