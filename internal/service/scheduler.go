// Package service provides the business logic of the retrack engine.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/retrack-dev/retrack/internal/core"
	"github.com/retrack-dev/retrack/internal/data"
	"github.com/retrack-dev/retrack/internal/domain/cron"
	"github.com/retrack-dev/retrack/internal/domain/model"
	apperrors "github.com/retrack-dev/retrack/internal/errors"
)

// trackerBatchSize bounds how many due tracker jobs one tick dispatches.
const trackerBatchSize = 100

// RecurringCrons holds the cron sources of the three engine-owned jobs.
type RecurringCrons struct {
	TrackersSchedule string
	TrackersRun      string
	TasksRun         string
}

// source returns the configured cron for a recurring job type.
func (c RecurringCrons) source(jobType model.SchedulerJobType) string {
	switch jobType {
	case model.JobTypeTrackersSchedule:
		return c.TrackersSchedule
	case model.JobTypeTrackersRun:
		return c.TrackersRun
	default:
		return c.TasksRun
	}
}

// recurringJobTypes is the tick order: reconcile first, then dispatch, then
// drain.
var recurringJobTypes = []model.SchedulerJobType{
	model.JobTypeTrackersSchedule,
	model.JobTypeTrackersRun,
	model.JobTypeTasksRun,
}

// SchedulerServiceOptions holds the dependencies for creating a
// SchedulerService.
type SchedulerServiceOptions struct {
	Jobs     core.SchedulerJobRepository
	Trackers core.TrackerRepository
	// Pipeline runs due trackers; Tasks drains the queue.
	Pipeline *Pipeline
	Tasks    *TasksService

	Crons        RecurringCrons
	TimeProvider data.TimeProvider
	Logger       *slog.Logger
}

// SchedulerService owns the three recurring jobs: trackers-schedule
// (reconcile per-tracker job rows to tracker config), trackers-run (dispatch
// due trackers to the pipeline) and tasks-run (drain the task queue). Safe
// under concurrent replicas: each recurring job runs under an advisory lock
// keyed by its type, with dueness re-checked after the lock is acquired.
type SchedulerService struct {
	jobs         core.SchedulerJobRepository
	trackers     core.TrackerRepository
	pipeline     *Pipeline
	tasks        *TasksService
	crons        RecurringCrons
	timeProvider data.TimeProvider
	logger       *slog.Logger
}

// NewSchedulerService creates a new SchedulerService.
func NewSchedulerService(opts SchedulerServiceOptions) *SchedulerService {
	if opts.Jobs == nil {
		panic("SchedulerJobRepository is required")
	}
	if opts.Trackers == nil {
		panic("TrackerRepository is required")
	}
	if opts.Pipeline == nil {
		panic("Pipeline is required")
	}
	if opts.Tasks == nil {
		panic("TasksService is required")
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &SchedulerService{
		jobs:         opts.Jobs,
		trackers:     opts.Trackers,
		pipeline:     opts.Pipeline,
		tasks:        opts.Tasks,
		crons:        opts.Crons,
		timeProvider: opts.TimeProvider,
		logger:       opts.Logger,
	}
}

// EnsureRecurringJobs creates or resumes the three recurring job rows at
// startup. A row whose cron source still matches the configuration is kept
// as-is (its tick history survives restarts); a drifted one is rescheduled.
func (s *SchedulerService) EnsureRecurringJobs(ctx context.Context) error {
	now := s.timeProvider.Now()

	for _, jobType := range recurringJobTypes {
		source := s.crons.source(jobType)
		next, err := cron.NextAfter(source, now)
		if err != nil {
			return fmt.Errorf("invalid cron for %s job: %w", jobType, err)
		}

		existing, err := s.jobs.GetRecurring(ctx, jobType)
		switch {
		case apperrors.IsNotFound(err):
			if _, err := s.jobs.Create(ctx, model.SchedulerJob{
				ID:         uuid.New(),
				JobType:    jobType,
				CronSource: source,
				NextRunAt:  &next,
			}); err != nil {
				return fmt.Errorf("create %s job: %w", jobType, err)
			}
			s.logger.InfoContext(ctx, "created recurring scheduler job",
				"job_type", jobType, "cron", source)

		case err != nil:
			return fmt.Errorf("load %s job: %w", jobType, err)

		case existing.CronSource != source:
			if err := s.jobs.UpdateCron(ctx, existing.ID, source, &next); err != nil {
				return fmt.Errorf("reschedule %s job: %w", jobType, err)
			}
			s.logger.InfoContext(ctx, "rescheduled recurring scheduler job",
				"job_type", jobType, "cron", source)
		}
	}
	return nil
}

// Tick runs every due recurring job once. Returns how many ran.
//
// Concurrency safety: each recurring job type runs under an advisory lock and
// its dueness is re-read once the lock is held, so replicas ticking
// simultaneously split the work instead of repeating it.
func (s *SchedulerService) Tick(ctx context.Context, now time.Time) (int, error) {
	processed := 0

	for _, jobType := range recurringJobTypes {
		due, err := s.jobs.FindDue(ctx, jobType, now, 1)
		if err != nil {
			return processed, fmt.Errorf("find due %s job: %w", jobType, err)
		}
		if len(due) == 0 {
			continue
		}

		ran := false
		locked, lockErr := s.jobs.TryWithJobLock(ctx, jobType.String(),
			func(ctx context.Context, _ *sql.Tx) error {
				// Another replica may have run the job between the dueness
				// scan and lock acquisition, so re-read under the lock.
				due, err := s.jobs.FindDue(ctx, jobType, now, 1)
				if err != nil {
					return fmt.Errorf("find due %s job: %w", jobType, err)
				}
				if len(due) == 0 {
					return nil
				}
				ran = true
				return s.runRecurring(ctx, due[0], now)
			})
		if lockErr != nil {
			return processed, fmt.Errorf("run %s job: %w", jobType, lockErr)
		}
		if locked && ran {
			processed++
		}
		// locked == false: another replica holds this job; skip.
	}

	return processed, nil
}

// runRecurring advances the job's schedule, then performs its work. The tick
// is recorded first so a failing job does not re-fire until its next
// occurrence.
func (s *SchedulerService) runRecurring(ctx context.Context, job model.SchedulerJob, now time.Time) error {
	next, err := cron.NextAfter(job.CronSource, now)
	if err != nil {
		return fmt.Errorf("compute next occurrence: %w", err)
	}
	if err := s.jobs.MarkTick(ctx, job.ID, now, &next); err != nil {
		return fmt.Errorf("mark tick: %w", err)
	}

	switch job.JobType {
	case model.JobTypeTrackersSchedule:
		return s.reconcileTrackerJobs(ctx, now)
	case model.JobTypeTrackersRun:
		return s.runDueTrackers(ctx, now)
	case model.JobTypeTasksRun:
		_, err := s.tasks.Drain(ctx, taskPageSize)
		return err
	default:
		return apperrors.Internalf("unexpected recurring job type %q", job.JobType)
	}
}

// reconcileTrackerJobs aligns per-tracker job rows with tracker config:
// schedulable trackers get a job row, drifted schedules are rescheduled, and
// rows for deleted or unschedulable trackers are dropped.
func (s *SchedulerService) reconcileTrackerJobs(ctx context.Context, now time.Time) error {
	trackers, err := s.trackers.List(ctx, model.ListTrackersParams{})
	if err != nil {
		return fmt.Errorf("list trackers: %w", err)
	}
	jobs, err := s.jobs.ListByType(ctx, model.JobTypeTracker)
	if err != nil {
		return fmt.Errorf("list tracker jobs: %w", err)
	}

	jobByTracker := make(map[uuid.UUID]model.SchedulerJob, len(jobs))
	for _, job := range jobs {
		if job.TrackerID != nil {
			jobByTracker[*job.TrackerID] = job
		}
	}

	known := make(map[uuid.UUID]struct{}, len(trackers))
	for _, tracker := range trackers {
		known[tracker.ID] = struct{}{}
		if err := s.reconcileTracker(ctx, tracker, jobByTracker, now); err != nil {
			s.logger.ErrorContext(ctx, "failed to reconcile tracker schedule",
				"tracker_id", tracker.ID, "error", err)
		}
	}

	// Orphaned rows: the tracker is gone but the cascade did not cover it
	// (job rows created between list calls, or manual deletes).
	for _, job := range jobs {
		if job.TrackerID == nil {
			continue
		}
		if _, ok := known[*job.TrackerID]; !ok {
			if err := s.jobs.Delete(ctx, job.ID); err != nil && !apperrors.IsNotFound(err) {
				s.logger.ErrorContext(ctx, "failed to remove orphaned tracker job",
					"job_id", job.ID, "error", err)
			}
		}
	}
	return nil
}

func (s *SchedulerService) reconcileTracker(
	ctx context.Context,
	tracker model.Tracker,
	jobByTracker map[uuid.UUID]model.SchedulerJob,
	now time.Time,
) error {
	job, hasJob := jobByTracker[tracker.ID]
	schedulable := tracker.Enabled && tracker.Config.Revisions > 0 && tracker.Config.Job != nil

	if !schedulable {
		if !hasJob {
			return nil
		}
		if err := s.jobs.Delete(ctx, job.ID); err != nil && !apperrors.IsNotFound(err) {
			return fmt.Errorf("remove job: %w", err)
		}
		return s.trackers.SetJobID(ctx, tracker.ID, nil)
	}

	schedule := tracker.Config.Job.Schedule
	if !hasJob {
		next, err := cron.NextAfter(schedule, now)
		if err != nil {
			return fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}
		created, err := s.jobs.Create(ctx, model.SchedulerJob{
			ID:         uuid.New(),
			JobType:    model.JobTypeTracker,
			TrackerID:  &tracker.ID,
			CronSource: schedule,
			NextRunAt:  &next,
		})
		if err != nil {
			return fmt.Errorf("create job: %w", err)
		}
		if err := s.trackers.SetJobID(ctx, tracker.ID, &created.ID); err != nil {
			return fmt.Errorf("bind job: %w", err)
		}
		s.logger.InfoContext(ctx, "scheduled tracker",
			"tracker_id", tracker.ID, "job_id", created.ID, "cron", schedule)
		return nil
	}

	if job.CronSource != schedule {
		next, err := cron.NextAfter(schedule, now)
		if err != nil {
			return fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}
		if err := s.jobs.UpdateCron(ctx, job.ID, schedule, &next); err != nil {
			return fmt.Errorf("reschedule job: %w", err)
		}
		s.logger.InfoContext(ctx, "rescheduled tracker",
			"tracker_id", tracker.ID, "job_id", job.ID, "cron", schedule)
	}

	// Repair a missing binding; the job row is the source of truth.
	if tracker.JobID == nil || *tracker.JobID != job.ID {
		return s.trackers.SetJobID(ctx, tracker.ID, &job.ID)
	}
	return nil
}

// runDueTrackers dispatches due per-tracker jobs to the pipeline, one at a
// time. A failing tracker does not abort the batch.
func (s *SchedulerService) runDueTrackers(ctx context.Context, now time.Time) error {
	due, err := s.jobs.FindDue(ctx, model.JobTypeTracker, now, trackerBatchSize)
	if err != nil {
		return fmt.Errorf("find due tracker jobs: %w", err)
	}

	for _, job := range due {
		if err := ctx.Err(); err != nil {
			return err
		}

		next, err := cron.NextAfter(job.CronSource, now)
		if err != nil {
			s.logger.ErrorContext(ctx, "tracker job has invalid cron, removing it",
				"job_id", job.ID, "cron", job.CronSource, "error", err)
			if delErr := s.jobs.Delete(ctx, job.ID); delErr != nil {
				s.logger.ErrorContext(ctx, "failed to remove broken tracker job",
					"job_id", job.ID, "error", delErr)
			}
			continue
		}
		if err := s.jobs.MarkTick(ctx, job.ID, now, &next); err != nil {
			s.logger.ErrorContext(ctx, "failed to mark tracker job tick",
				"job_id", job.ID, "error", err)
			continue
		}

		if err := s.pipeline.RunScheduled(ctx, job); err != nil {
			if apperrors.IsCanceled(err) {
				return err
			}
			s.logger.ErrorContext(ctx, "tracker job failed",
				"job_id", job.ID, "error", err)
		}
	}
	return nil
}
