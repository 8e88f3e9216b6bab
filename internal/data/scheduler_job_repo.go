package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/retrack-dev/retrack/internal/data/pgxutil"
	"github.com/retrack-dev/retrack/internal/domain/model"
	apperrors "github.com/retrack-dev/retrack/internal/errors"
)

// SchedulerJobRepo provides database operations for scheduler job records.
type SchedulerJobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewSchedulerJobRepo creates a SchedulerJobRepo backed by the given database.
func NewSchedulerJobRepo(db *sql.DB) *SchedulerJobRepo {
	return &SchedulerJobRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewSchedulerJobRepoWithTimeProvider creates a SchedulerJobRepo with a custom
// TimeProvider (useful for testing).
func NewSchedulerJobRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *SchedulerJobRepo {
	return &SchedulerJobRepo{DB: db, timeProvider: tp}
}

// fnvHash folds a job name into the BIGINT space of advisory lock keys.
func fnvHash(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	u := h.Sum64()
	if u > uint64(math.MaxInt64) {
		u %= uint64(math.MaxInt64)
	}
	return int64(u) // #nosec G115 -- value is bounded to <= MaxInt64 before casting.
}

const schedulerJobColumns = `id, job_type, tracker_id, cron_source, last_tick, next_run_at, stopped, retry, created_at, updated_at`

// Create inserts a scheduler job row. A second job for the same tracker, or a
// second copy of a recurring job, maps to a conflict error.
func (r *SchedulerJobRepo) Create(ctx context.Context, job model.SchedulerJob) (model.SchedulerJob, error) {
	retry, err := json.Marshal(job.Retry)
	if err != nil {
		return model.SchedulerJob{}, fmt.Errorf("encode retry meta: %w", err)
	}

	now := r.timeProvider.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	if _, err := r.DB.ExecContext(ctx, `
		INSERT INTO scheduler_jobs (id, job_type, tracker_id, cron_source, last_tick, next_run_at, stopped, retry, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.ID, job.JobType.String(), job.TrackerID, job.CronSource,
		job.LastTick, job.NextRunAt, job.Stopped, retry, job.CreatedAt, job.UpdatedAt,
	); err != nil {
		return model.SchedulerJob{}, apperrors.MapDBError(err)
	}
	return job, nil
}

// Get returns a scheduler job by id.
func (r *SchedulerJobRepo) Get(ctx context.Context, id uuid.UUID) (model.SchedulerJob, error) {
	return r.getBy(ctx, "id = $1", id)
}

// GetByTrackerID returns the per-tracker job of a tracker.
func (r *SchedulerJobRepo) GetByTrackerID(ctx context.Context, trackerID uuid.UUID) (model.SchedulerJob, error) {
	return r.getBy(ctx, "tracker_id = $1", trackerID)
}

// GetRecurring returns the single row of an engine-owned recurring job.
func (r *SchedulerJobRepo) GetRecurring(ctx context.Context, jobType model.SchedulerJobType) (model.SchedulerJob, error) {
	return r.getBy(ctx, "job_type = $1 AND tracker_id IS NULL", jobType.String())
}

func (r *SchedulerJobRepo) getBy(ctx context.Context, where string, arg any) (model.SchedulerJob, error) {
	var row schedulerJobRow
	err := r.DB.QueryRowContext(ctx,
		`SELECT `+schedulerJobColumns+` FROM scheduler_jobs WHERE `+where, arg,
	).Scan(
		&row.ID, &row.JobType, &row.TrackerID, &row.CronSource, &row.LastTick,
		&row.NextRunAt, &row.Stopped, &row.Retry, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		return model.SchedulerJob{}, apperrors.MapDBError(err)
	}
	return row.toSchedulerJob()
}

// ListByType returns all jobs of the given type, oldest first.
func (r *SchedulerJobRepo) ListByType(ctx context.Context, jobType model.SchedulerJobType) ([]model.SchedulerJob, error) {
	return r.list(ctx,
		`SELECT `+schedulerJobColumns+` FROM scheduler_jobs WHERE job_type = $1 ORDER BY created_at ASC`,
		jobType.String(),
	)
}

// FindDue returns due jobs of the given type under FOR UPDATE SKIP LOCKED, so
// concurrent schedulers never pick the same job. A job is due when its next
// cron occurrence has arrived and it is not parked, or when a pending retry
// has matured.
func (r *SchedulerJobRepo) FindDue(
	ctx context.Context,
	jobType model.SchedulerJobType,
	now time.Time,
	limit int,
) ([]model.SchedulerJob, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := `
		SELECT ` + schedulerJobColumns + `
		FROM scheduler_jobs
		WHERE job_type = $1
		  AND (
		    (NOT stopped AND next_run_at IS NOT NULL AND next_run_at <= $2)
		    OR (
		      (retry ->> 'attempts')::int > 0
		      AND retry ->> 'next_at' IS NOT NULL
		      AND (retry ->> 'next_at')::timestamptz <= $2
		    )
		  )
		ORDER BY next_run_at ASC NULLS LAST, created_at ASC
		LIMIT $3
		FOR UPDATE SKIP LOCKED`

	var jobs []model.SchedulerJob
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, jobType.String(), now.UTC(), limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		collected, err := pgx.CollectRows(rows, rowToSchedulerJob)
		if err != nil {
			return err
		}
		jobs = collected
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return jobs, nil
}

// MarkTick records a run start and precomputes the next cron occurrence. A
// nil next parks the job until something updates it again.
func (r *SchedulerJobRepo) MarkTick(ctx context.Context, id uuid.UUID, tick time.Time, next *time.Time) error {
	return r.update(ctx, id,
		`UPDATE scheduler_jobs SET last_tick = $2, next_run_at = $3, updated_at = $4 WHERE id = $1`,
		tick.UTC(), nullableUTC(next), r.timeProvider.Now().UTC(),
	)
}

// SetRetry stores the job's retry state and, while a retry is pending, parks
// the cron trigger.
func (r *SchedulerJobRepo) SetRetry(ctx context.Context, id uuid.UUID, meta model.RetryMeta) error {
	retry, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode retry meta: %w", err)
	}
	return r.update(ctx, id,
		`UPDATE scheduler_jobs SET retry = $2, stopped = $3, updated_at = $4 WHERE id = $1`,
		retry, meta.Active(), r.timeProvider.Now().UTC(),
	)
}

// ClearRetry resets the retry state and resumes the cron trigger.
func (r *SchedulerJobRepo) ClearRetry(ctx context.Context, id uuid.UUID) error {
	return r.SetRetry(ctx, id, model.RetryMeta{})
}

// SetStopped parks or resumes a job.
func (r *SchedulerJobRepo) SetStopped(ctx context.Context, id uuid.UUID, stopped bool) error {
	return r.update(ctx, id,
		`UPDATE scheduler_jobs SET stopped = $2, updated_at = $3 WHERE id = $1`,
		stopped, r.timeProvider.Now().UTC(),
	)
}

// UpdateCron rewrites the job's schedule after a config change, resetting
// retry state.
func (r *SchedulerJobRepo) UpdateCron(ctx context.Context, id uuid.UUID, cronSource string, next *time.Time) error {
	return r.update(ctx, id,
		`UPDATE scheduler_jobs
		 SET cron_source = $2, next_run_at = $3, stopped = FALSE,
		     retry = '{"attempts": 0}'::jsonb, updated_at = $4
		 WHERE id = $1`,
		cronSource, nullableUTC(next), r.timeProvider.Now().UTC(),
	)
}

// Delete removes a scheduler job row.
func (r *SchedulerJobRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM scheduler_jobs WHERE id = $1`, id)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFoundf("scheduler job %s not found", id)
	}
	return nil
}

// TryWithJobLock runs fn inside a transaction holding the advisory lock of
// the named job. Return semantics:
//   - (false, nil): lock held elsewhere; fn was not executed
//   - (true, nil): lock acquired; fn executed and succeeded
//   - (true, err): lock acquired; fn executed and failed
func (r *SchedulerJobRepo) TryWithJobLock(
	ctx context.Context,
	name string,
	fn func(context.Context, *sql.Tx) error,
) (bool, error) {
	key := fnvHash(name)

	var locked bool
	var fnErr error
	err := pgxutil.WithSQLTx(ctx, r.DB, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			"SELECT pg_try_advisory_xact_lock($1)", key,
		).Scan(&locked); err != nil {
			return fmt.Errorf("acquire advisory lock for %s: %w", name, err)
		}
		if !locked {
			return nil
		}
		// The transaction commits regardless; fn's error is reported
		// separately so the lock release is never skipped.
		fnErr = fn(ctx, tx)
		return nil
	})
	if err != nil {
		return false, err
	}
	return locked, fnErr
}

func (r *SchedulerJobRepo) update(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFoundf("scheduler job %s not found", id)
	}
	return nil
}

func (r *SchedulerJobRepo) list(ctx context.Context, query string, args ...any) ([]model.SchedulerJob, error) {
	var jobs []model.SchedulerJob
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		collected, err := pgx.CollectRows(rows, rowToSchedulerJob)
		if err != nil {
			return err
		}
		jobs = collected
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return jobs, nil
}

func nullableUTC(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

type schedulerJobRow struct {
	ID         uuid.UUID  `db:"id"`
	JobType    string     `db:"job_type"`
	TrackerID  *uuid.UUID `db:"tracker_id"`
	CronSource string     `db:"cron_source"`
	LastTick   *time.Time `db:"last_tick"`
	NextRunAt  *time.Time `db:"next_run_at"`
	Stopped    bool       `db:"stopped"`
	Retry      []byte     `db:"retry"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

func (r *schedulerJobRow) toSchedulerJob() (model.SchedulerJob, error) {
	job := model.SchedulerJob{
		ID:         r.ID,
		JobType:    model.SchedulerJobType(r.JobType),
		TrackerID:  r.TrackerID,
		CronSource: r.CronSource,
		LastTick:   r.LastTick,
		NextRunAt:  r.NextRunAt,
		Stopped:    r.Stopped,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if len(r.Retry) > 0 {
		if err := json.Unmarshal(r.Retry, &job.Retry); err != nil {
			return model.SchedulerJob{}, fmt.Errorf("decode retry meta: %w", err)
		}
	}
	return job, nil
}

func rowToSchedulerJob(row pgx.CollectableRow) (model.SchedulerJob, error) {
	dbRow, err := pgx.RowToStructByName[schedulerJobRow](row)
	if err != nil {
		return model.SchedulerJob{}, fmt.Errorf("scan scheduler job row: %w", err)
	}
	return dbRow.toSchedulerJob()
}
