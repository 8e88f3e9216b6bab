// Package core defines the port interfaces between the service layer and its
// collaborators (persistence, scripting, scraping, parsing).
package core

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/retrack-dev/retrack/internal/domain/model"
	"github.com/retrack-dev/retrack/internal/scraper"
	"github.com/retrack-dev/retrack/internal/scripting"
)

// TrackerRepository defines tracker data operations.
type TrackerRepository interface {
	Create(ctx context.Context, tracker model.Tracker) (model.Tracker, error)
	Get(ctx context.Context, id uuid.UUID) (model.Tracker, error)
	GetByName(ctx context.Context, name string) (model.Tracker, error)
	List(ctx context.Context, params model.ListTrackersParams) ([]model.Tracker, error)
	Update(ctx context.Context, tracker model.Tracker) (model.Tracker, error)
	SetJobID(ctx context.Context, trackerID uuid.UUID, jobID *uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RevisionRepository defines revision data operations. AppendIfChanged is the
// single write path for pipeline results.
type RevisionRepository interface {
	AppendIfChanged(
		ctx context.Context,
		trackerID uuid.UUID,
		value model.TrackerDataValue,
		maxRevisions int,
	) (model.TrackerRevision, bool, error)
	Latest(ctx context.Context, trackerID uuid.UUID) (model.TrackerRevision, error)
	List(ctx context.Context, trackerID uuid.UUID) ([]model.TrackerRevision, error)
	Get(ctx context.Context, trackerID, revisionID uuid.UUID) (model.TrackerRevision, error)
	Delete(ctx context.Context, trackerID, revisionID uuid.UUID) error
	Clear(ctx context.Context, trackerID uuid.UUID) error
}

// TaskRepository defines task queue data operations.
type TaskRepository interface {
	Schedule(ctx context.Context, task model.Task) (model.Task, error)
	Get(ctx context.Context, id uuid.UUID) (model.Task, error)
	FindDue(ctx context.Context, params model.FindDueTasksParams) ([]model.Task, error)
	Reschedule(ctx context.Context, id uuid.UUID, at time.Time, retryAttempt int) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SchedulerJobRepository defines scheduler job data operations.
type SchedulerJobRepository interface {
	Create(ctx context.Context, job model.SchedulerJob) (model.SchedulerJob, error)
	Get(ctx context.Context, id uuid.UUID) (model.SchedulerJob, error)
	GetByTrackerID(ctx context.Context, trackerID uuid.UUID) (model.SchedulerJob, error)
	GetRecurring(ctx context.Context, jobType model.SchedulerJobType) (model.SchedulerJob, error)
	ListByType(ctx context.Context, jobType model.SchedulerJobType) ([]model.SchedulerJob, error)
	FindDue(ctx context.Context, jobType model.SchedulerJobType, now time.Time, limit int) ([]model.SchedulerJob, error)
	MarkTick(ctx context.Context, id uuid.UUID, tick time.Time, next *time.Time) error
	SetRetry(ctx context.Context, id uuid.UUID, meta model.RetryMeta) error
	ClearRetry(ctx context.Context, id uuid.UUID) error
	SetStopped(ctx context.Context, id uuid.UUID, stopped bool) error
	UpdateCron(ctx context.Context, id uuid.UUID, cronSource string, next *time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	TryWithJobLock(ctx context.Context, name string, fn func(context.Context, *sql.Tx) error) (bool, error)
}

// NotificationRepository records dispatched action fan-outs.
type NotificationRepository interface {
	Record(ctx context.Context, notification model.Notification) (model.Notification, error)
	List(ctx context.Context, limit int) ([]model.Notification, error)
}

// ScriptExecutor runs user-supplied JavaScript under quota.
type ScriptExecutor interface {
	Execute(ctx context.Context, params scripting.ExecuteParams) (json.RawMessage, error)
}

// PageScraper renders page targets through the external scraper component.
type PageScraper interface {
	Execute(ctx context.Context, request scraper.ExecuteRequest) (json.RawMessage, error)
}

// TaskExecutor delivers a single task (email send or HTTP call).
type TaskExecutor interface {
	ExecuteTask(ctx context.Context, task model.Task) error
}

// ContentParser converts known media types into their JSON projection.
type ContentParser interface {
	Parse(mediaType string, body []byte) ([]byte, error)
}

// URLGuard decides whether an outbound URL is acceptable.
type URLGuard interface {
	IsPublicWebURL(ctx context.Context, rawURL string) bool
}

// TrackersPolicy is the server-level tracker validation policy.
type TrackersPolicy struct {
	// MaxRevisions caps the per-tracker revision limit.
	MaxRevisions int
	// MaxTimeout caps the per-tracker fetch timeout.
	MaxTimeout time.Duration
	// Schedules, when non-empty, whitelists the accepted cron sources.
	Schedules []string
	// MinScheduleInterval is the tightest allowed gap between occurrences.
	MinScheduleInterval time.Duration
	// MinRetryInterval floors the intervals of tracker retry strategies.
	MinRetryInterval time.Duration
	// RestrictToPublicURLs applies the network guard to tracker targets.
	RestrictToPublicURLs bool
	// MaxScriptSize caps configurator/extractor/formatter script bytes.
	MaxScriptSize int
}

// DefaultTrackersPolicy mirrors the server defaults.
func DefaultTrackersPolicy() TrackersPolicy {
	return TrackersPolicy{
		MaxRevisions:         30,
		MaxTimeout:           300 * time.Second,
		MinScheduleInterval:  10 * time.Second,
		MinRetryInterval:     10 * time.Second,
		RestrictToPublicURLs: true,
		MaxScriptSize:        4 * 1024,
	}
}
