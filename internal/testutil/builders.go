package testutil

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/retrack-dev/retrack/internal/domain/model"
)

// TrackerBuilder provides a fluent interface for building trackers in tests.
type TrackerBuilder struct {
	tracker model.Tracker
}

// NewTracker creates a TrackerBuilder with sensible defaults: an enabled API
// tracker fetching one URL, keeping three revisions.
func NewTracker() *TrackerBuilder {
	return &TrackerBuilder{
		tracker: model.Tracker{
			ID:      uuid.New(),
			Name:    "test-tracker",
			Enabled: true,
			Target: model.TrackerTarget{
				Type: model.TargetTypeAPI,
				API: &model.APITarget{
					Requests: []model.APIRequest{{URL: "https://example.com/data"}},
				},
			},
			Config: model.TrackerConfig{
				Revisions: 3,
				Timeout:   model.Duration(10 * time.Second),
			},
		},
	}
}

// WithName sets the tracker name.
func (b *TrackerBuilder) WithName(name string) *TrackerBuilder {
	b.tracker.Name = name
	return b
}

// WithEnabled sets the enabled flag.
func (b *TrackerBuilder) WithEnabled(enabled bool) *TrackerBuilder {
	b.tracker.Enabled = enabled
	return b
}

// WithRevisions sets the revision limit.
func (b *TrackerBuilder) WithRevisions(n int) *TrackerBuilder {
	b.tracker.Config.Revisions = n
	return b
}

// WithSchedule attaches a job config with the given cron schedule.
func (b *TrackerBuilder) WithSchedule(schedule string) *TrackerBuilder {
	b.tracker.Config.Job = &model.JobConfig{Schedule: schedule}
	return b
}

// WithRetryStrategy sets the retry strategy on the job config, creating one
// if needed.
func (b *TrackerBuilder) WithRetryStrategy(strategy model.RetryStrategy) *TrackerBuilder {
	if b.tracker.Config.Job == nil {
		b.tracker.Config.Job = &model.JobConfig{Schedule: "@hourly"}
	}
	b.tracker.Config.Job.RetryStrategy = &strategy
	return b
}

// WithTags sets the tracker tags.
func (b *TrackerBuilder) WithTags(tags ...string) *TrackerBuilder {
	b.tracker.Tags = tags
	return b
}

// WithActions sets the tracker actions.
func (b *TrackerBuilder) WithActions(actions ...model.TrackerAction) *TrackerBuilder {
	b.tracker.Actions = actions
	return b
}

// WithTarget replaces the whole target.
func (b *TrackerBuilder) WithTarget(target model.TrackerTarget) *TrackerBuilder {
	b.tracker.Target = target
	return b
}

// Build returns the constructed tracker.
func (b *TrackerBuilder) Build() model.Tracker {
	return b.tracker
}

// EmailTask builds an email task with a literal body, scheduled at the given
// time.
func EmailTask(at time.Time, to ...string) model.Task {
	id, _ := uuid.NewV7()
	return model.Task{
		ID: id,
		Type: model.TaskType{
			Kind: model.TaskKindEmail,
			Email: &model.EmailTaskType{
				To: to,
				Content: model.EmailContent{
					Custom: &model.CustomEmail{Subject: "test", Text: "test body"},
				},
			},
		},
		ScheduledAt: at,
	}
}

// HTTPTask builds an HTTP task posting a small JSON body, scheduled at the
// given time.
func HTTPTask(at time.Time, url string) model.Task {
	id, _ := uuid.NewV7()
	return model.Task{
		ID: id,
		Type: model.TaskType{
			Kind: model.TaskKindHTTP,
			HTTP: &model.HTTPTaskType{
				URL:  url,
				Body: json.RawMessage(`{"ping":true}`),
			},
		},
		ScheduledAt: at,
	}
}
