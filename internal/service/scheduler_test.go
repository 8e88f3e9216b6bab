package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/retrack-dev/retrack/internal/core"
	"github.com/retrack-dev/retrack/internal/data"
	"github.com/retrack-dev/retrack/internal/domain/cron"
	"github.com/retrack-dev/retrack/internal/domain/model"
	apperrors "github.com/retrack-dev/retrack/internal/errors"
	"github.com/retrack-dev/retrack/internal/mocks"
)

var testCrons = RecurringCrons{
	TrackersSchedule: "0/10 * * * * *",
	TrackersRun:      "0/10 * * * * *",
	TasksRun:         "0/30 * * * * *",
}

type schedulerMocks struct {
	jobs     *mocks.MockSchedulerJobRepository
	trackers *mocks.MockTrackerRepository
	taskRepo *mocks.MockTaskRepository
	pipeline *pipelineMocks
}

// expectLockPassThrough makes the advisory lock run its callback inline, the
// behavior of an uncontended lock.
func (m *schedulerMocks) expectLockPassThrough(name string) *gomock.Call {
	return m.jobs.EXPECT().
		TryWithJobLock(gomock.Any(), name, gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, fn func(context.Context, *sql.Tx) error) (bool, error) {
			return true, fn(ctx, nil)
		})
}

func newSchedulerService(t *testing.T, now time.Time) (*schedulerMocks, *SchedulerService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	pm := &pipelineMocks{
		trackers:      mocks.NewMockTrackerRepository(ctrl),
		revisions:     mocks.NewMockRevisionRepository(ctrl),
		jobs:          mocks.NewMockSchedulerJobRepository(ctrl),
		notifications: mocks.NewMockNotificationRepository(ctrl),
		scripts:       mocks.NewMockScriptExecutor(ctrl),
		scraper:       mocks.NewMockPageScraper(ctrl),
		parsers:       mocks.NewMockContentParser(ctrl),
		taskRepo:      mocks.NewMockTaskRepository(ctrl),
		taskExecutor:  mocks.NewMockTaskExecutor(ctrl),
	}

	tasks := NewTasksService(TasksServiceOptions{
		Tasks:    pm.taskRepo,
		Executor: pm.taskExecutor,
		Retries:  testRetryPolicies,
	}, nil)

	policy := core.DefaultTrackersPolicy()
	policy.RestrictToPublicURLs = false

	pipeline := NewPipeline(PipelineOptions{
		Stores: PipelineStores{
			Trackers:      pm.trackers,
			Revisions:     pm.revisions,
			Jobs:          pm.jobs,
			Notifications: pm.notifications,
		},
		Engines: PipelineEngines{
			Scripts: pm.scripts,
			Scraper: pm.scraper,
			Parsers: pm.parsers,
		},
		Tasks:      tasks,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		Policy:     policy,
	}, nil)

	service := NewSchedulerService(SchedulerServiceOptions{
		Jobs:         pm.jobs,
		Trackers:     pm.trackers,
		Pipeline:     pipeline,
		Tasks:        tasks,
		Crons:        testCrons,
		TimeProvider: data.NewFixedTimeProvider(now),
	})

	return &schedulerMocks{
		jobs:     pm.jobs,
		trackers: pm.trackers,
		taskRepo: pm.taskRepo,
		pipeline: pm,
	}, service
}

func TestSchedulerService_EnsureRecurringJobs_CreatesMissing(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 3, 0, time.UTC)
	m, service := newSchedulerService(t, now)

	ctx := context.Background()
	for _, jobType := range recurringJobTypes {
		jobType := jobType
		m.jobs.EXPECT().GetRecurring(ctx, jobType).
			Return(model.SchedulerJob{}, apperrors.NotFound("no job")).Times(1)
		m.jobs.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, job model.SchedulerJob) (model.SchedulerJob, error) {
				assert.Equal(t, jobType, job.JobType)
				assert.Equal(t, testCrons.source(jobType), job.CronSource)
				require.NotNil(t, job.NextRunAt)
				assert.True(t, job.NextRunAt.After(now))
				return job, nil
			}).
			Times(1)
	}

	require.NoError(t, service.EnsureRecurringJobs(ctx))
}

func TestSchedulerService_EnsureRecurringJobs_KeepsMatchingRows(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 3, 0, time.UTC)
	m, service := newSchedulerService(t, now)

	ctx := context.Background()
	for _, jobType := range recurringJobTypes {
		m.jobs.EXPECT().GetRecurring(ctx, jobType).
			Return(model.SchedulerJob{
				ID:         uuid.New(),
				JobType:    jobType,
				CronSource: testCrons.source(jobType),
			}, nil).Times(1)
	}
	// No Create or UpdateCron calls.

	require.NoError(t, service.EnsureRecurringJobs(ctx))
}

func TestSchedulerService_EnsureRecurringJobs_ReschedulesDrifted(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 3, 0, time.UTC)
	m, service := newSchedulerService(t, now)

	ctx := context.Background()
	drifted := model.SchedulerJob{
		ID:         uuid.New(),
		JobType:    model.JobTypeTrackersSchedule,
		CronSource: "0/5 * * * * *",
	}
	m.jobs.EXPECT().GetRecurring(ctx, model.JobTypeTrackersSchedule).Return(drifted, nil).Times(1)
	m.jobs.EXPECT().
		UpdateCron(ctx, drifted.ID, testCrons.TrackersSchedule, gomock.Any()).
		Return(nil).Times(1)
	for _, jobType := range []model.SchedulerJobType{model.JobTypeTrackersRun, model.JobTypeTasksRun} {
		m.jobs.EXPECT().GetRecurring(ctx, jobType).
			Return(model.SchedulerJob{
				ID:         uuid.New(),
				JobType:    jobType,
				CronSource: testCrons.source(jobType),
			}, nil).Times(1)
	}

	require.NoError(t, service.EnsureRecurringJobs(ctx))
}

func TestSchedulerService_Tick_NothingDue(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 3, 0, time.UTC)
	m, service := newSchedulerService(t, now)

	ctx := context.Background()
	for _, jobType := range recurringJobTypes {
		m.jobs.EXPECT().FindDue(ctx, jobType, now, 1).Return(nil, nil).Times(1)
	}

	processed, err := service.Tick(ctx, now)

	require.NoError(t, err)
	assert.Zero(t, processed)
}

func TestSchedulerService_Tick_SkipsContendedLock(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 3, 0, time.UTC)
	m, service := newSchedulerService(t, now)

	ctx := context.Background()
	job := model.SchedulerJob{
		ID:         uuid.New(),
		JobType:    model.JobTypeTasksRun,
		CronSource: testCrons.TasksRun,
	}
	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTrackersSchedule, now, 1).Return(nil, nil).Times(1)
	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTrackersRun, now, 1).Return(nil, nil).Times(1)
	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTasksRun, now, 1).
		Return([]model.SchedulerJob{job}, nil).Times(1)
	m.jobs.EXPECT().
		TryWithJobLock(gomock.Any(), model.JobTypeTasksRun.String(), gomock.Any()).
		Return(false, nil).
		Times(1)

	processed, err := service.Tick(ctx, now)

	require.NoError(t, err)
	assert.Zero(t, processed)
}

func TestSchedulerService_Tick_RechecksDuenessUnderLock(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 3, 0, time.UTC)
	m, service := newSchedulerService(t, now)

	ctx := context.Background()
	job := model.SchedulerJob{
		ID:         uuid.New(),
		JobType:    model.JobTypeTasksRun,
		CronSource: testCrons.TasksRun,
	}
	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTrackersSchedule, now, 1).Return(nil, nil).Times(1)
	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTrackersRun, now, 1).Return(nil, nil).Times(1)
	// Another replica runs the job between the first scan and lock
	// acquisition; the re-read under the lock must find nothing and skip.
	gomock.InOrder(
		m.jobs.EXPECT().FindDue(ctx, model.JobTypeTasksRun, now, 1).
			Return([]model.SchedulerJob{job}, nil),
		m.jobs.EXPECT().FindDue(ctx, model.JobTypeTasksRun, now, 1).
			Return(nil, nil),
	)
	m.expectLockPassThrough(model.JobTypeTasksRun.String()).Times(1)

	processed, err := service.Tick(ctx, now)

	require.NoError(t, err)
	assert.Zero(t, processed)
}

func TestSchedulerService_Tick_DrainsTasks(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)
	m, service := newSchedulerService(t, now)

	ctx := context.Background()
	job := model.SchedulerJob{
		ID:         uuid.New(),
		JobType:    model.JobTypeTasksRun,
		CronSource: testCrons.TasksRun,
	}
	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTrackersSchedule, now, 1).Return(nil, nil).Times(1)
	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTrackersRun, now, 1).Return(nil, nil).Times(1)
	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTasksRun, now, 1).
		Return([]model.SchedulerJob{job}, nil).Times(2)
	m.expectLockPassThrough(model.JobTypeTasksRun.String()).Times(1)
	m.jobs.EXPECT().
		MarkTick(gomock.Any(), job.ID, now, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, _ time.Time, next *time.Time) error {
			require.NotNil(t, next)
			assert.True(t, next.After(now))
			return nil
		}).
		Times(1)
	m.taskRepo.EXPECT().FindDue(gomock.Any(), gomock.Any()).Return(nil, nil).Times(1)

	processed, err := service.Tick(ctx, now)

	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}

func TestSchedulerService_Tick_MarksTickBeforeFailingWork(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)
	m, service := newSchedulerService(t, now)

	ctx := context.Background()
	job := model.SchedulerJob{
		ID:         uuid.New(),
		JobType:    model.JobTypeTasksRun,
		CronSource: testCrons.TasksRun,
	}
	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTrackersSchedule, now, 1).Return(nil, nil).Times(1)
	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTrackersRun, now, 1).Return(nil, nil).Times(1)
	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTasksRun, now, 1).
		Return([]model.SchedulerJob{job}, nil).Times(2)
	m.expectLockPassThrough(model.JobTypeTasksRun.String()).Times(1)

	gomock.InOrder(
		m.jobs.EXPECT().MarkTick(gomock.Any(), job.ID, now, gomock.Any()).Return(nil),
		m.taskRepo.EXPECT().FindDue(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("connection reset")),
	)

	_, err := service.Tick(ctx, now)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "tasks_run")
}

func reconcileJob(now time.Time) model.SchedulerJob {
	return model.SchedulerJob{
		ID:         uuid.New(),
		JobType:    model.JobTypeTrackersSchedule,
		CronSource: testCrons.TrackersSchedule,
		NextRunAt:  &now,
	}
}

// runReconcile drives one trackers-schedule tick against the given state.
func runReconcile(
	t *testing.T,
	m *schedulerMocks,
	service *SchedulerService,
	now time.Time,
	trackers []model.Tracker,
	trackerJobs []model.SchedulerJob,
) {
	t.Helper()
	ctx := context.Background()
	job := reconcileJob(now)

	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTrackersSchedule, now, 1).
		Return([]model.SchedulerJob{job}, nil).Times(2)
	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTrackersRun, now, 1).Return(nil, nil).Times(1)
	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTasksRun, now, 1).Return(nil, nil).Times(1)
	m.expectLockPassThrough(model.JobTypeTrackersSchedule.String()).Times(1)
	m.jobs.EXPECT().MarkTick(gomock.Any(), job.ID, now, gomock.Any()).Return(nil).Times(1)
	m.trackers.EXPECT().List(gomock.Any(), model.ListTrackersParams{}).Return(trackers, nil).Times(1)
	m.jobs.EXPECT().ListByType(gomock.Any(), model.JobTypeTracker).Return(trackerJobs, nil).Times(1)

	processed, err := service.Tick(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}

func TestSchedulerService_Reconcile_CreatesJobForSchedulableTracker(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m, service := newSchedulerService(t, now)

	tracker := pageTracker()
	tracker.Config.Job = &model.JobConfig{Schedule: "@hourly"}

	var createdID uuid.UUID
	m.jobs.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, job model.SchedulerJob) (model.SchedulerJob, error) {
			assert.Equal(t, model.JobTypeTracker, job.JobType)
			require.NotNil(t, job.TrackerID)
			assert.Equal(t, tracker.ID, *job.TrackerID)
			assert.Equal(t, "@hourly", job.CronSource)
			require.NotNil(t, job.NextRunAt)
			assert.Equal(t, now.Add(time.Hour), *job.NextRunAt)
			createdID = job.ID
			return job, nil
		}).
		Times(1)
	m.trackers.EXPECT().
		SetJobID(gomock.Any(), tracker.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, jobID *uuid.UUID) error {
			require.NotNil(t, jobID)
			assert.Equal(t, createdID, *jobID)
			return nil
		}).
		Times(1)

	runReconcile(t, m, service, now, []model.Tracker{tracker}, nil)
}

func TestSchedulerService_Reconcile_RemovesJobForUnschedulableTracker(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m, service := newSchedulerService(t, now)

	tracker := pageTracker()
	tracker.Enabled = false
	tracker.Config.Job = &model.JobConfig{Schedule: "@hourly"}
	existing := model.SchedulerJob{
		ID:         uuid.New(),
		JobType:    model.JobTypeTracker,
		TrackerID:  &tracker.ID,
		CronSource: "@hourly",
	}
	tracker.JobID = &existing.ID

	m.jobs.EXPECT().Delete(gomock.Any(), existing.ID).Return(nil).Times(1)
	m.trackers.EXPECT().SetJobID(gomock.Any(), tracker.ID, nil).Return(nil).Times(1)

	runReconcile(t, m, service, now, []model.Tracker{tracker}, []model.SchedulerJob{existing})
}

func TestSchedulerService_Reconcile_ReschedulesDriftedJob(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m, service := newSchedulerService(t, now)

	tracker := pageTracker()
	tracker.Config.Job = &model.JobConfig{Schedule: "@daily"}
	existing := model.SchedulerJob{
		ID:         uuid.New(),
		JobType:    model.JobTypeTracker,
		TrackerID:  &tracker.ID,
		CronSource: "@hourly",
	}
	tracker.JobID = &existing.ID

	m.jobs.EXPECT().
		UpdateCron(gomock.Any(), existing.ID, "@daily", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, _ string, next *time.Time) error {
			require.NotNil(t, next)
			want, err := cron.NextAfter("@daily", now)
			require.NoError(t, err)
			assert.Equal(t, want, *next)
			return nil
		}).
		Times(1)

	runReconcile(t, m, service, now, []model.Tracker{tracker}, []model.SchedulerJob{existing})
}

func TestSchedulerService_Reconcile_RemovesOrphanedJob(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m, service := newSchedulerService(t, now)

	goneTrackerID := uuid.New()
	orphan := model.SchedulerJob{
		ID:         uuid.New(),
		JobType:    model.JobTypeTracker,
		TrackerID:  &goneTrackerID,
		CronSource: "@hourly",
	}

	m.jobs.EXPECT().Delete(gomock.Any(), orphan.ID).Return(nil).Times(1)

	runReconcile(t, m, service, now, nil, []model.SchedulerJob{orphan})
}

func TestSchedulerService_Reconcile_RepairsMissingBinding(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m, service := newSchedulerService(t, now)

	tracker := pageTracker()
	tracker.Config.Job = &model.JobConfig{Schedule: "@hourly"}
	existing := model.SchedulerJob{
		ID:         uuid.New(),
		JobType:    model.JobTypeTracker,
		TrackerID:  &tracker.ID,
		CronSource: "@hourly",
	}
	// tracker.JobID left nil: the binding is missing.

	m.trackers.EXPECT().
		SetJobID(gomock.Any(), tracker.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, jobID *uuid.UUID) error {
			require.NotNil(t, jobID)
			assert.Equal(t, existing.ID, *jobID)
			return nil
		}).
		Times(1)

	runReconcile(t, m, service, now, []model.Tracker{tracker}, []model.SchedulerJob{existing})
}

// runDispatch drives one trackers-run tick returning the given due jobs.
func runDispatch(
	t *testing.T,
	m *schedulerMocks,
	service *SchedulerService,
	now time.Time,
	due []model.SchedulerJob,
) error {
	t.Helper()
	ctx := context.Background()
	job := model.SchedulerJob{
		ID:         uuid.New(),
		JobType:    model.JobTypeTrackersRun,
		CronSource: testCrons.TrackersRun,
	}

	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTrackersSchedule, now, 1).Return(nil, nil).Times(1)
	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTrackersRun, now, 1).
		Return([]model.SchedulerJob{job}, nil).Times(2)
	m.jobs.EXPECT().FindDue(ctx, model.JobTypeTasksRun, now, 1).Return(nil, nil).Times(1)
	m.expectLockPassThrough(model.JobTypeTrackersRun.String()).Times(1)
	m.jobs.EXPECT().MarkTick(gomock.Any(), job.ID, now, gomock.Any()).Return(nil).Times(1)
	m.jobs.EXPECT().FindDue(gomock.Any(), model.JobTypeTracker, now, trackerBatchSize).
		Return(due, nil).Times(1)

	_, err := service.Tick(ctx, now)
	return err
}

func TestSchedulerService_RunDueTrackers_DispatchesToPipeline(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m, service := newSchedulerService(t, now)

	tracker := pageTracker()
	tracker.Config.Job = &model.JobConfig{Schedule: "@hourly"}
	job := model.SchedulerJob{
		ID:         uuid.New(),
		JobType:    model.JobTypeTracker,
		TrackerID:  &tracker.ID,
		CronSource: "@hourly",
		NextRunAt:  &now,
	}

	m.jobs.EXPECT().MarkTick(gomock.Any(), job.ID, now, gomock.Any()).Return(nil).Times(1)
	// The pipeline run itself: fetch, parse, store.
	m.pipeline.trackers.EXPECT().Get(gomock.Any(), tracker.ID).Return(tracker, nil).Times(1)
	m.pipeline.revisions.EXPECT().Latest(gomock.Any(), tracker.ID).
		Return(model.TrackerRevision{}, apperrors.NotFound("no revisions")).Times(1)
	m.pipeline.scraper.EXPECT().Execute(gomock.Any(), gomock.Any()).
		Return(json.RawMessage(`"v"`), nil).Times(1)
	m.pipeline.parsers.EXPECT().Parse("application/json", []byte(`"v"`)).
		Return([]byte(`"v"`), nil).Times(1)
	m.pipeline.revisions.EXPECT().
		AppendIfChanged(gomock.Any(), tracker.ID, gomock.Any(), 5).
		Return(model.TrackerRevision{}, false, nil).
		Times(1)

	require.NoError(t, runDispatch(t, m, service, now, []model.SchedulerJob{job}))
}

func TestSchedulerService_RunDueTrackers_InvalidCronRemovesJob(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m, service := newSchedulerService(t, now)

	trackerID := uuid.New()
	broken := model.SchedulerJob{
		ID:         uuid.New(),
		JobType:    model.JobTypeTracker,
		TrackerID:  &trackerID,
		CronSource: "not a cron",
	}

	m.jobs.EXPECT().Delete(gomock.Any(), broken.ID).Return(nil).Times(1)

	require.NoError(t, runDispatch(t, m, service, now, []model.SchedulerJob{broken}))
}

func TestSchedulerService_RunDueTrackers_FailureDoesNotAbortBatch(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m, service := newSchedulerService(t, now)

	firstTrackerID, secondTrackerID := uuid.New(), uuid.New()
	first := model.SchedulerJob{
		ID: uuid.New(), JobType: model.JobTypeTracker,
		TrackerID: &firstTrackerID, CronSource: "@hourly",
	}
	second := model.SchedulerJob{
		ID: uuid.New(), JobType: model.JobTypeTracker,
		TrackerID: &secondTrackerID, CronSource: "@hourly",
	}

	m.jobs.EXPECT().MarkTick(gomock.Any(), first.ID, now, gomock.Any()).Return(nil).Times(1)
	m.jobs.EXPECT().MarkTick(gomock.Any(), second.ID, now, gomock.Any()).Return(nil).Times(1)
	// First job is broken at the pipeline level; the second still runs.
	m.pipeline.trackers.EXPECT().Get(gomock.Any(), firstTrackerID).
		Return(model.Tracker{}, apperrors.Internal("storage offline")).Times(1)
	m.pipeline.trackers.EXPECT().Get(gomock.Any(), secondTrackerID).
		Return(model.Tracker{}, apperrors.NotFound("tracker not found")).Times(1)
	m.jobs.EXPECT().Delete(gomock.Any(), second.ID).Return(nil).Times(1)

	require.NoError(t, runDispatch(t, m, service, now, []model.SchedulerJob{first, second}))
}
