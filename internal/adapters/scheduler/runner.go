// Package scheduler provides the adapter that drives the scheduler loop.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Scheduler is the surface the runner drives. Implemented by
// service.SchedulerService.
type Scheduler interface {
	EnsureRecurringJobs(ctx context.Context) error
	Tick(ctx context.Context, now time.Time) (int, error)
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Scheduler Scheduler
	// Interval is the tick cadence. Recurring jobs fire on their own cron
	// schedules; the interval only bounds how quickly a due job is noticed.
	Interval time.Duration
	Logger   *slog.Logger
}

// Runner drives the scheduler: it resumes the recurring jobs at startup and
// then ticks at a fixed interval until the context is cancelled.
type Runner struct {
	scheduler Scheduler
	interval  time.Duration
	logger    *slog.Logger
}

// NewRunner creates a new scheduler runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Scheduler == nil {
		return nil, errors.New("scheduler is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = 1 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		scheduler: opts.Scheduler,
		interval:  opts.Interval,
		logger:    opts.Logger,
	}, nil
}

// Run starts the scheduler loop and runs until the context is cancelled.
// Tick errors are logged and the loop keeps going.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.scheduler.EnsureRecurringJobs(ctx); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "scheduler runner started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "scheduler runner stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case now := <-ticker.C:
			processed, err := r.scheduler.Tick(ctx, now)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				r.logger.ErrorContext(ctx, "scheduler tick failed", "error", err)
			} else if processed > 0 {
				r.logger.DebugContext(ctx, "scheduler tick processed jobs", "processed", processed)
			}
		}
	}
}
