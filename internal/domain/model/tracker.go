// Package model defines the persistent domain types of the retrack engine.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Tracker is a named, scheduled fetch specification declared by a user.
type Tracker struct {
	ID      uuid.UUID `json:"id"      db:"id"`
	Name    string    `json:"name"    db:"name"`
	Enabled bool      `json:"enabled" db:"enabled"`
	// Target describes what the tracker fetches: a scripted page render or a
	// sequence of HTTP API calls.
	Target TrackerTarget `json:"target" db:"target"`
	// Config carries revision bounds, the per-fetch timeout, and the optional
	// scheduler job configuration.
	Config TrackerConfig `json:"config" db:"config"`
	Tags   []string      `json:"tags"   db:"tags"`
	// Actions are executed when a new revision is produced or, on retry
	// exhaustion, with the failure message.
	Actions []TrackerAction `json:"actions" db:"actions"`
	// JobID binds the tracker to its per-tracker scheduler job, if any.
	JobID     *uuid.UUID `json:"job_id,omitempty" db:"job_id"`
	CreatedAt time.Time  `json:"created_at"       db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"       db:"updated_at"`
}

// defaultTrackerRevisions is the revision cap applied when a tracker is
// created without an explicit config.
const defaultTrackerRevisions = 3

// DefaultTrackerConfig returns the config applied to trackers created without
// one: a small revision history, no timeout, and no scheduler job.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{Revisions: defaultTrackerRevisions}
}

// TrackerConfig is the tracker-level fetch policy.
type TrackerConfig struct {
	// Revisions is the maximum number of revisions kept for the tracker.
	// Zero means the tracker keeps no history and is display-only.
	Revisions int `json:"revisions"`
	// Timeout bounds every outbound request issued on behalf of the tracker.
	Timeout Duration `json:"timeout,omitempty"`
	// Job, when present, makes the tracker eligible for scheduling.
	Job *JobConfig `json:"job,omitempty"`
}

// JobConfig configures the per-tracker scheduler job.
type JobConfig struct {
	// Schedule is a seconds-granular cron pattern or one of the @-aliases.
	Schedule string `json:"schedule"`
	// RetryStrategy, when present, defers failed fetches instead of
	// immediately notifying failure.
	RetryStrategy *RetryStrategy `json:"retryStrategy,omitempty"`
}

// Equal reports whether two job configs describe the same schedule and retry
// policy. Used by the schedule reconciler to detect config drift.
func (c *JobConfig) Equal(other *JobConfig) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.Schedule != other.Schedule {
		return false
	}
	if (c.RetryStrategy == nil) != (other.RetryStrategy == nil) {
		return false
	}
	if c.RetryStrategy != nil && *c.RetryStrategy != *other.RetryStrategy {
		return false
	}
	return true
}
