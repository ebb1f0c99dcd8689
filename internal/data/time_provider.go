package data

import "time"

// TimeProvider abstracts the clock so repository timestamps can be pinned in tests.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider implements TimeProvider using the system clock.
type RealTimeProvider struct{}

func (r *RealTimeProvider) Now() time.Time { return time.Now() }

// FixedTimeProvider implements TimeProvider with a fixed time for testing.
type FixedTimeProvider struct {
	fixedTime time.Time
}

// NewFixedTimeProvider creates a FixedTimeProvider pinned at t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{fixedTime: t}
}

func (f *FixedTimeProvider) Now() time.Time { return f.fixedTime }
