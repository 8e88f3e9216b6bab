package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/retrack-dev/retrack/internal/core"
	"github.com/retrack-dev/retrack/internal/domain/model"
)

// taskPageSize bounds one page of the drain loop.
const taskPageSize = 100

// TaskRetryPolicies carries the per-kind delivery retry strategies.
type TaskRetryPolicies struct {
	Email model.RetryStrategy
	HTTP  model.RetryStrategy
}

// strategyFor returns the retry strategy for a task kind.
func (p TaskRetryPolicies) strategyFor(kind model.TaskKind) model.RetryStrategy {
	if kind == model.TaskKindEmail {
		return p.Email
	}
	return p.HTTP
}

// TasksServiceOptions groups dependencies for TasksService.
type TasksServiceOptions struct {
	Tasks    core.TaskRepository
	Executor core.TaskExecutor
	Retries  TaskRetryPolicies
}

// TasksService owns the task queue: scheduling, draining, delivery retries.
type TasksService struct {
	tasks    core.TaskRepository
	executor core.TaskExecutor
	retries  TaskRetryPolicies
	logger   *slog.Logger
	now      func() time.Time
}

// NewTasksService constructs a new TasksService.
func NewTasksService(opts TasksServiceOptions, logger *slog.Logger) *TasksService {
	if opts.Tasks == nil {
		panic("TaskRepository is required")
	}
	if opts.Executor == nil {
		panic("TaskExecutor is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TasksService{
		tasks:    opts.Tasks,
		executor: opts.Executor,
		retries:  opts.Retries,
		logger:   logger,
		now:      time.Now,
	}
}

// Schedule enqueues a task.
func (s *TasksService) Schedule(ctx context.Context, taskType model.TaskType, at time.Time, tags []string) (model.Task, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return model.Task{}, fmt.Errorf("generate task id: %w", err)
	}

	task, err := s.tasks.Schedule(ctx, model.Task{
		ID:          id,
		Type:        taskType,
		Tags:        tags,
		ScheduledAt: at.UTC(),
	})
	if err != nil {
		return model.Task{}, fmt.Errorf("schedule task: %w", err)
	}

	s.logger.DebugContext(ctx, "task scheduled",
		"task_id", task.ID, "kind", task.Type.Kind, "scheduled_at", task.ScheduledAt)
	return task, nil
}

// Get returns a task by id.
func (s *TasksService) Get(ctx context.Context, id uuid.UUID) (model.Task, error) {
	return s.tasks.Get(ctx, id)
}

// Remove deletes a task.
func (s *TasksService) Remove(ctx context.Context, id uuid.UUID) error {
	return s.tasks.Delete(ctx, id)
}

// Drain executes up to limit due tasks and returns how many were delivered.
// Successful tasks are deleted; failed ones are pushed to their next retry
// slot, or dropped once the retry budget is spent. The due horizon is fixed
// at drain start so rescheduled tasks wait for a later cycle.
func (s *TasksService) Drain(ctx context.Context, limit int) (int, error) {
	if limit <= 0 || limit > taskPageSize {
		limit = taskPageSize
	}

	horizon := s.now().UTC()
	delivered := 0
	processed := 0
	var cursor *model.TaskCursor

	for processed < limit {
		pageSize := min(taskPageSize, limit-processed)
		page, err := s.tasks.FindDue(ctx, model.FindDueTasksParams{
			Before: horizon,
			After:  cursor,
			Limit:  pageSize,
		})
		if err != nil {
			return delivered, fmt.Errorf("find due tasks: %w", err)
		}
		if len(page) == 0 {
			break
		}

		for _, task := range page {
			if err := ctx.Err(); err != nil {
				return delivered, err
			}
			processed++
			if s.deliver(ctx, task) {
				delivered++
			}
		}

		if len(page) < pageSize {
			break
		}
		last := page[len(page)-1]
		cursor = &model.TaskCursor{ScheduledAt: last.ScheduledAt, ID: last.ID}
	}

	if processed > 0 {
		s.logger.InfoContext(ctx, "task queue drained",
			"processed", processed, "delivered", delivered)
	}
	return delivered, nil
}

// deliver executes one task and applies the retry policy on failure. Returns
// true when the task was delivered and removed.
func (s *TasksService) deliver(ctx context.Context, task model.Task) bool {
	execErr := s.executor.ExecuteTask(ctx, task)
	if execErr == nil {
		if err := s.tasks.Delete(ctx, task.ID); err != nil {
			s.logger.ErrorContext(ctx, "failed to remove delivered task",
				"task_id", task.ID, "error", err)
		}
		return true
	}

	strategy := s.retries.strategyFor(task.Type.Kind)
	attempt := 1
	if task.RetryAttempt != nil {
		attempt = *task.RetryAttempt + 1
	}

	if attempt <= strategy.MaxAttempts {
		nextAt := s.now().UTC().Add(strategy.DelayForAttempt(attempt))
		s.logger.WarnContext(ctx, "task delivery failed, retrying",
			"task_id", task.ID, "kind", task.Type.Kind,
			"attempt", attempt, "next_at", nextAt, "error", execErr)
		if err := s.tasks.Reschedule(ctx, task.ID, nextAt, attempt); err != nil {
			s.logger.ErrorContext(ctx, "failed to reschedule task",
				"task_id", task.ID, "error", err)
		}
		return false
	}

	s.logger.ErrorContext(ctx, "task delivery failed permanently, dropping task",
		"task_id", task.ID, "kind", task.Type.Kind,
		"attempts", attempt, "error", execErr)
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to remove exhausted task",
			"task_id", task.ID, "error", err)
	}
	return false
}
