package ports

import (
	"context"
	"time"
)

// Limit is one (max requests, window) pair. Categories are selected by the
// caller per path pattern; the limiter itself is category-agnostic.
type Limit struct {
	MaxRequests int
	Window      time.Duration
}

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	// RetryAfter is the wait before the identifier's window resets, rounded
	// up to whole seconds. Zero when Allowed.
	RetryAfter time.Duration
}

// RateLimiter buckets request counts per identifier within sliding windows.
// A rejected request must not be charged against the counter. The in-memory
// implementation is process-local, so under multi-instance deployment limits
// apply per instance; the Redis implementation makes them global. Picking one
// is a deployment configuration choice, not a code change.
type RateLimiter interface {
	Check(ctx context.Context, identifier string, limit Limit) (Decision, error)
}
