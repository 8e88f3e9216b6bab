package data

import "time"

// TimeProvider abstracts the clock so repositories and the scheduler can be
// driven deterministically in tests. Callers are expected to normalize to UTC
// before persisting.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider is the production clock.
type RealTimeProvider struct{}

// Now returns the current system time.
func (r *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// FixedTimeProvider is a clock pinned to a single instant.
type FixedTimeProvider struct {
	fixedTime time.Time
}

// NewFixedTimeProvider creates a FixedTimeProvider pinned to t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{fixedTime: t}
}

// Now returns the pinned instant.
func (f *FixedTimeProvider) Now() time.Time {
	return f.fixedTime
}

// SetTime moves the pinned instant, simulating time progression between calls.
func (f *FixedTimeProvider) SetTime(t time.Time) {
	f.fixedTime = t
}
