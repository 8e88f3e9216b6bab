package model

import (
	"time"

	"github.com/google/uuid"
)

// SchedulerJobType discriminates scheduler job records.
type SchedulerJobType string

const (
	// JobTypeTrackersSchedule reconciles per-tracker job rows to tracker config.
	JobTypeTrackersSchedule SchedulerJobType = "trackers_schedule"
	// JobTypeTrackersRun dispatches due trackers to the fetch pipeline.
	JobTypeTrackersRun SchedulerJobType = "trackers_run"
	// JobTypeTasksRun drains the task queue.
	JobTypeTasksRun SchedulerJobType = "tasks_run"
	// JobTypeTracker is a per-tracker fetch job bound to the tracker's cron.
	JobTypeTracker SchedulerJobType = "tracker"
)

// Valid returns true if the job type is a known variant.
func (t SchedulerJobType) Valid() bool {
	switch t {
	case JobTypeTrackersSchedule, JobTypeTrackersRun, JobTypeTasksRun, JobTypeTracker:
		return true
	default:
		return false
	}
}

// String returns the string representation of the job type.
func (t SchedulerJobType) String() string {
	return string(t)
}

// Recurring reports whether the job type is one of the three engine-owned
// recurring jobs (as opposed to a per-tracker job).
func (t SchedulerJobType) Recurring() bool {
	return t == JobTypeTrackersSchedule || t == JobTypeTrackersRun || t == JobTypeTasksRun
}

// RetryMeta is the per-job retry state the scheduler consults to defer a due
// job after a failure.
type RetryMeta struct {
	Attempts int        `json:"attempts"`
	NextAt   *time.Time `json:"next_at,omitempty"`
}

// Active reports whether a retry is pending.
func (m RetryMeta) Active() bool {
	return m.Attempts > 0 && m.NextAt != nil
}

// SchedulerJob is a persisted scheduler job record.
type SchedulerJob struct {
	ID      uuid.UUID        `json:"id"       db:"id"`
	JobType SchedulerJobType `json:"job_type" db:"job_type"`
	// TrackerID is set only for per-tracker jobs.
	TrackerID  *uuid.UUID `json:"tracker_id,omitempty" db:"tracker_id"`
	CronSource string     `json:"cron_source"          db:"cron_source"`
	// LastTick is the start time of the most recent run.
	LastTick *time.Time `json:"last_tick,omitempty" db:"last_tick"`
	// NextRunAt is the next cron occurrence, precomputed on every update so
	// the due query stays a plain index scan.
	NextRunAt *time.Time `json:"next_run_at,omitempty" db:"next_run_at"`
	// Stopped parks the job: the cron trigger ignores it until an operator or
	// a pending retry wakes it up.
	Stopped   bool      `json:"stopped" db:"stopped"`
	Retry     RetryMeta `json:"retry"   db:"retry"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Due reports whether the job should run at the given instant: either the
// cron occurrence has arrived and the job is not parked, or a pending retry
// has matured.
func (j SchedulerJob) Due(now time.Time) bool {
	if j.Retry.Active() {
		return !j.Retry.NextAt.After(now)
	}
	if j.Stopped {
		return false
	}
	return j.NextRunAt != nil && !j.NextRunAt.After(now)
}
