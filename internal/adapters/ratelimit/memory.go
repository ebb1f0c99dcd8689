package ratelimit

// Package ratelimit provides the in-process rate limiter used by
// single-instance deployments. The Redis-backed limiter for multi-instance
// deployments lives in internal/adapters/redis.

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/clinova/platform/internal/ports"
)

type entry struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
	// gone marks an entry the sweep removed from the map. A Check that
	// obtained the pointer before removal must not charge it: the charge
	// would land on an orphan and the next request would start a free
	// window. Set only while holding both the map lock and mu.
	gone bool
}

// MemoryLimiter is a process-local sliding-window counter keyed by caller
// identifier. Entries carry their own lock so two concurrent requests for the
// same identifier serialize on read/modify/write; the outer lock only guards
// the map itself.
type MemoryLimiter struct {
	mu      sync.RWMutex
	entries map[string]*entry

	sweepEvery time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a MemoryLimiter.
type Option func(*MemoryLimiter)

// WithSweepInterval overrides the background sweep interval.
func WithSweepInterval(d time.Duration) Option {
	return func(l *MemoryLimiter) {
		if d > 0 {
			l.sweepEvery = d
		}
	}
}

// WithTimeSource overrides the limiter's clock (useful for tests).
func WithTimeSource(now func() time.Time) Option {
	return func(l *MemoryLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the logger for sweep reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(l *MemoryLimiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewMemoryLimiter creates a MemoryLimiter. Call Run to start the background
// sweep that bounds memory growth.
func NewMemoryLimiter(opts ...Option) *MemoryLimiter {
	l := &MemoryLimiter{
		entries:    make(map[string]*entry),
		sweepEvery: time.Minute,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ ports.RateLimiter = (*MemoryLimiter)(nil)

// Check applies the limit to one request for the identifier. A request that
// exceeds the limit is rejected without being charged against the counter.
func (l *MemoryLimiter) Check(_ context.Context, identifier string, limit ports.Limit) (ports.Decision, error) {
	var e *entry
	for {
		e = l.entryFor(identifier)
		e.mu.Lock()
		if !e.gone {
			break
		}
		// Swept between lookup and lock; a gone entry is no longer in the
		// map, so the retry allocates a live one.
		e.mu.Unlock()
	}
	defer e.mu.Unlock()

	now := l.now()
	if e.count == 0 || now.After(e.resetAt) {
		e.count = 1
		e.resetAt = now.Add(limit.Window)
		return ports.Decision{
			Allowed:   true,
			Remaining: limit.MaxRequests - 1,
			ResetAt:   e.resetAt,
		}, nil
	}

	if e.count < limit.MaxRequests {
		e.count++
		return ports.Decision{
			Allowed:   true,
			Remaining: limit.MaxRequests - e.count,
			ResetAt:   e.resetAt,
		}, nil
	}

	return ports.Decision{
		Allowed:    false,
		Remaining:  0,
		ResetAt:    e.resetAt,
		RetryAfter: ceilSeconds(e.resetAt.Sub(now)),
	}, nil
}

func (l *MemoryLimiter) entryFor(identifier string) *entry {
	l.mu.RLock()
	e, ok := l.entries[identifier]
	l.mu.RUnlock()
	if ok {
		return e
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok = l.entries[identifier]; ok {
		return e
	}
	e = &entry{}
	l.entries[identifier] = e
	return e
}

// Run sweeps expired entries until ctx is done. The sweep snapshots candidate
// keys first and takes the map lock per key, so it never stalls concurrent
// Check calls for a full pass; running two sweeps concurrently is harmless.
func (l *MemoryLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed := l.sweep()
			if removed > 0 {
				l.logger.DebugContext(ctx, "rate limit sweep", "removed", removed)
			}
		}
	}
}

func (l *MemoryLimiter) sweep() int {
	now := l.now()

	l.mu.RLock()
	candidates := make([]string, 0, len(l.entries))
	for id, e := range l.entries {
		e.mu.Lock()
		expired := now.After(e.resetAt)
		e.mu.Unlock()
		if expired {
			candidates = append(candidates, id)
		}
	}
	l.mu.RUnlock()

	removed := 0
	for _, id := range candidates {
		l.mu.Lock()
		if e, ok := l.entries[id]; ok {
			e.mu.Lock()
			// Re-check: the entry may have been refreshed since the snapshot.
			if now.After(e.resetAt) {
				e.gone = true
				delete(l.entries, id)
				removed++
			}
			e.mu.Unlock()
		}
		l.mu.Unlock()
	}
	return removed
}

func ceilSeconds(d time.Duration) time.Duration {
	secs := d / time.Second
	if d%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs * time.Second
}
