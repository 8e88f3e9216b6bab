package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/retrack-dev/retrack/internal/data/pgxutil"
	"github.com/retrack-dev/retrack/internal/domain/model"
	apperrors "github.com/retrack-dev/retrack/internal/errors"
)

// TaskRepo provides database operations for the task queue.
type TaskRepo struct {
	DB *sql.DB
}

// NewTaskRepo creates a TaskRepo backed by the given database.
func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{DB: db}
}

// Schedule inserts a task into the queue.
func (r *TaskRepo) Schedule(ctx context.Context, task model.Task) (model.Task, error) {
	payload, err := json.Marshal(task.Type)
	if err != nil {
		return model.Task{}, fmt.Errorf("encode task payload: %w", err)
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return model.Task{}, fmt.Errorf("encode task tags: %w", err)
	}

	if _, err := r.DB.ExecContext(ctx, `
		INSERT INTO tasks (id, task_type, tags, scheduled_at, retry_attempt)
		VALUES ($1, $2, $3, $4, $5)`,
		task.ID, payload, tags, task.ScheduledAt.UTC(), task.RetryAttempt,
	); err != nil {
		return model.Task{}, apperrors.MapDBError(err)
	}
	return task, nil
}

// Get returns a task by id.
func (r *TaskRepo) Get(ctx context.Context, id uuid.UUID) (model.Task, error) {
	var row taskRow
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, task_type, tags, scheduled_at, retry_attempt
		FROM tasks WHERE id = $1`, id,
	).Scan(&row.ID, &row.TaskType, &row.Tags, &row.ScheduledAt, &row.RetryAttempt)
	if err != nil {
		return model.Task{}, apperrors.MapDBError(err)
	}
	return row.toTask()
}

// FindDue returns one page of due tasks in (scheduled_at, id) order. The task
// ids are time-ordered, so the pair forms a total order stable across pages.
func (r *TaskRepo) FindDue(ctx context.Context, params model.FindDueTasksParams) ([]model.Task, error) {
	if params.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", params.Limit)
	}

	query := `
		SELECT id, task_type, tags, scheduled_at, retry_attempt
		FROM tasks
		WHERE scheduled_at <= $1`
	args := []any{params.Before.UTC()}
	if params.After != nil {
		query += ` AND (scheduled_at, id) > ($2, $3)`
		args = append(args, params.After.ScheduledAt.UTC(), params.After.ID)
	}
	query += fmt.Sprintf(` ORDER BY scheduled_at ASC, id ASC LIMIT $%d`, len(args)+1)
	args = append(args, params.Limit)

	var tasks []model.Task
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		collected, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Task, error) {
			dbRow, err := pgx.RowToStructByName[taskRow](row)
			if err != nil {
				return model.Task{}, fmt.Errorf("scan task row: %w", err)
			}
			return dbRow.toTask()
		})
		if err != nil {
			return err
		}
		tasks = collected
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return tasks, nil
}

// Reschedule moves a failed task to a later slot and records the attempt
// count.
func (r *TaskRepo) Reschedule(ctx context.Context, id uuid.UUID, at time.Time, retryAttempt int) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE tasks SET scheduled_at = $2, retry_attempt = $3 WHERE id = $1`,
		id, at.UTC(), retryAttempt,
	)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFoundf("task %s not found", id)
	}
	return nil
}

// Delete removes a task, normally after successful delivery or retry
// exhaustion.
func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFoundf("task %s not found", id)
	}
	return nil
}

type taskRow struct {
	ID           uuid.UUID `db:"id"`
	TaskType     []byte    `db:"task_type"`
	Tags         []byte    `db:"tags"`
	ScheduledAt  time.Time `db:"scheduled_at"`
	RetryAttempt *int      `db:"retry_attempt"`
}

func (r *taskRow) toTask() (model.Task, error) {
	task := model.Task{
		ID:           r.ID,
		ScheduledAt:  r.ScheduledAt,
		RetryAttempt: r.RetryAttempt,
	}
	if err := json.Unmarshal(r.TaskType, &task.Type); err != nil {
		return model.Task{}, fmt.Errorf("decode task payload: %w", err)
	}
	if len(r.Tags) > 0 {
		if err := json.Unmarshal(r.Tags, &task.Tags); err != nil {
			return model.Task{}, fmt.Errorf("decode task tags: %w", err)
		}
	}
	return task, nil
}
