package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrack-dev/retrack/internal/domain/model"
	apperrors "github.com/retrack-dev/retrack/internal/errors"
	"github.com/retrack-dev/retrack/internal/testutil"
)

func newRecurringJob(jobType model.SchedulerJobType, next time.Time) model.SchedulerJob {
	return model.SchedulerJob{
		ID:         uuid.New(),
		JobType:    jobType,
		CronSource: "0 0/10 * * * * *",
		NextRunAt:  testutil.TimePtr(next),
	}
}

func TestSchedulerJobRepo_CreateAndGet(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewSchedulerJobRepo(db)

		job := newRecurringJob(model.JobTypeTasksRun, testutil.TestTime())
		_, err := repo.Create(ctx, job)
		require.NoError(t, err)

		got, err := repo.GetRecurring(ctx, model.JobTypeTasksRun)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
		assert.False(t, got.Stopped)
		assert.Zero(t, got.Retry.Attempts)

		// Second copy of the same recurring job conflicts.
		_, err = repo.Create(ctx, newRecurringJob(model.JobTypeTasksRun, testutil.TestTime()))
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestSchedulerJobRepo_PerTrackerUnique(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewSchedulerJobRepo(db)
		tracker := createTestTracker(t, db)

		job := model.SchedulerJob{
			ID:         uuid.New(),
			JobType:    model.JobTypeTracker,
			TrackerID:  &tracker.ID,
			CronSource: "@hourly",
			NextRunAt:  testutil.TimePtr(testutil.TestTime()),
		}
		_, err := repo.Create(ctx, job)
		require.NoError(t, err)

		dupe := job
		dupe.ID = uuid.New()
		_, err = repo.Create(ctx, dupe)
		assert.True(t, apperrors.IsConflict(err))

		got, err := repo.GetByTrackerID(ctx, tracker.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
	})
}

func TestSchedulerJobRepo_FindDue(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewSchedulerJobRepo(db)
		now := testutil.TestTime()

		due := newRecurringJob(model.JobTypeTrackersRun, now.Add(-time.Minute))
		_, err := repo.Create(ctx, due)
		require.NoError(t, err)

		notYet := newRecurringJob(model.JobTypeTasksRun, now.Add(time.Hour))
		_, err = repo.Create(ctx, notYet)
		require.NoError(t, err)

		jobs, err := repo.FindDue(ctx, model.JobTypeTrackersRun, now, 10)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, due.ID, jobs[0].ID)

		jobs, err = repo.FindDue(ctx, model.JobTypeTasksRun, now, 10)
		require.NoError(t, err)
		assert.Empty(t, jobs)
	})
}

func TestSchedulerJobRepo_StoppedJobWakesOnRetry(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewSchedulerJobRepo(db)
		tracker := createTestTracker(t, db)
		now := testutil.TestTime()

		job := model.SchedulerJob{
			ID:         uuid.New(),
			JobType:    model.JobTypeTracker,
			TrackerID:  &tracker.ID,
			CronSource: "@hourly",
			NextRunAt:  testutil.TimePtr(now.Add(-time.Minute)),
		}
		_, err := repo.Create(ctx, job)
		require.NoError(t, err)

		// A pending retry parks the cron trigger.
		retryAt := now.Add(-time.Second)
		require.NoError(t, repo.SetRetry(ctx, job.ID, model.RetryMeta{
			Attempts: 1,
			NextAt:   &retryAt,
		}))

		got, err := repo.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.True(t, got.Stopped)
		assert.Equal(t, 1, got.Retry.Attempts)

		// The matured retry still surfaces the job as due.
		jobs, err := repo.FindDue(ctx, model.JobTypeTracker, now, 10)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, job.ID, jobs[0].ID)

		// Clearing the retry resumes the cron trigger.
		require.NoError(t, repo.ClearRetry(ctx, job.ID))
		got, err = repo.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.False(t, got.Stopped)
		assert.Zero(t, got.Retry.Attempts)
	})
}

func TestSchedulerJobRepo_MarkTick(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewSchedulerJobRepo(db)
		now := testutil.TestTime()

		job := newRecurringJob(model.JobTypeTrackersSchedule, now.Add(-time.Minute))
		_, err := repo.Create(ctx, job)
		require.NoError(t, err)

		next := now.Add(10 * time.Minute)
		require.NoError(t, repo.MarkTick(ctx, job.ID, now, &next))

		got, err := repo.Get(ctx, job.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastTick)
		assert.True(t, got.LastTick.Equal(now))
		require.NotNil(t, got.NextRunAt)
		assert.True(t, got.NextRunAt.Equal(next))

		jobs, err := repo.FindDue(ctx, model.JobTypeTrackersSchedule, now, 10)
		require.NoError(t, err)
		assert.Empty(t, jobs)
	})
}

func TestSchedulerJobRepo_UpdateCronResetsState(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewSchedulerJobRepo(db)
		tracker := createTestTracker(t, db)
		now := testutil.TestTime()

		job := model.SchedulerJob{
			ID:         uuid.New(),
			JobType:    model.JobTypeTracker,
			TrackerID:  &tracker.ID,
			CronSource: "@hourly",
			NextRunAt:  testutil.TimePtr(now),
		}
		_, err := repo.Create(ctx, job)
		require.NoError(t, err)

		retryAt := now.Add(time.Minute)
		require.NoError(t, repo.SetRetry(ctx, job.ID, model.RetryMeta{Attempts: 2, NextAt: &retryAt}))

		next := now.Add(24 * time.Hour)
		require.NoError(t, repo.UpdateCron(ctx, job.ID, "@daily", &next))

		got, err := repo.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, "@daily", got.CronSource)
		assert.False(t, got.Stopped)
		assert.Zero(t, got.Retry.Attempts)
		require.NotNil(t, got.NextRunAt)
		assert.True(t, got.NextRunAt.Equal(next))
	})
}

func TestSchedulerJobRepo_TryWithJobLock(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewSchedulerJobRepo(db)

		var ran bool
		locked, err := repo.TryWithJobLock(ctx, "tasks_run", func(ctx context.Context, tx *sql.Tx) error {
			ran = true

			// While the lock is held, a second attempt must bounce.
			other := NewSchedulerJobRepo(db)
			otherLocked, otherErr := other.TryWithJobLock(ctx, "tasks_run",
				func(context.Context, *sql.Tx) error { return nil })
			assert.NoError(t, otherErr)
			assert.False(t, otherLocked)
			return nil
		})
		require.NoError(t, err)
		assert.True(t, locked)
		assert.True(t, ran)
	})
}
