package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/retrack-dev/retrack/config"
	"github.com/retrack-dev/retrack/internal/adapters/scheduler"
	"github.com/retrack-dev/retrack/internal/adapters/taskrunner"
	"github.com/retrack-dev/retrack/internal/core"
	"github.com/retrack-dev/retrack/internal/data"
	httpx "github.com/retrack-dev/retrack/internal/http"
	"github.com/retrack-dev/retrack/internal/netguard"
	"github.com/retrack-dev/retrack/internal/parsers"
	"github.com/retrack-dev/retrack/internal/scraper"
	"github.com/retrack-dev/retrack/internal/scripting"
	"github.com/retrack-dev/retrack/internal/service"
)

const (
	httpReadTimeout     = 30 * time.Second
	httpWriteTimeout    = 30 * time.Second
	httpIdleTimeout     = 120 * time.Second
	shutdownTimeout     = 10 * time.Second
	outboundTimeout     = 30 * time.Second
	outboundDialTimeout = 10 * time.Second
)

// fetchClient builds the HTTP client used for tracker-driven fetches (API
// targets and scraper renders). It carries no client-level timeout: a tracker
// may declare a timeout up to trackers.max_timeout, so each request is bounded
// by its context deadline while the transport bounds connection setup.
func fetchClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: outboundDialTimeout}).DialContext,
			TLSHandshakeTimeout: outboundDialTimeout,
		},
	}
}

// Engine bundles the wired application: the admin API handler, the scheduler
// runner and the script runtime whose worker must be stopped on shutdown.
type Engine struct {
	Router    http.Handler
	Scheduler *scheduler.Runner
	Scripts   *scripting.Runtime
}

// EngineDeps carries the externally owned dependencies of BuildEngine.
type EngineDeps struct {
	Config config.AppConfig
	DB     *sql.DB
	Logger *slog.Logger
}

// BuildEngine wires repositories, engines and services into an Engine.
func BuildEngine(deps EngineDeps) (*Engine, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	trackers := data.NewTrackerRepo(deps.DB)
	revisions := data.NewRevisionRepo(deps.DB)
	tasks := data.NewTaskRepo(deps.DB)
	jobs := data.NewSchedulerJobRepo(deps.DB)
	notifications := data.NewNotificationRepo(deps.DB)

	guard := netguard.New(net.DefaultResolver, logger)
	scripts := scripting.NewRuntime(scripting.Config{
		MaxHeapBytes:     cfg.JSRuntime.MaxHeapSize,
		MaxExecutionTime: cfg.JSRuntime.MaxScriptExecutionTime.Std(),
	}, logger)
	scraperClient := scraper.NewClient(scraper.ClientOptions{
		BaseURL:    cfg.Components.WebScraperURL,
		HTTPClient: fetchClient(),
		Logger:     logger,
	})
	parserRegistry := parsers.NewRegistry(logger)

	policy := core.TrackersPolicy{
		MaxRevisions:         cfg.Trackers.MaxRevisions,
		MaxTimeout:           cfg.Trackers.MaxTimeout.Std(),
		Schedules:            cfg.Trackers.Schedules,
		MinScheduleInterval:  cfg.Trackers.MinScheduleInterval.Std(),
		MinRetryInterval:     cfg.Trackers.MinRetryInterval.Std(),
		RestrictToPublicURLs: cfg.Trackers.RestrictToPublicURLs,
		MaxScriptSize:        cfg.Trackers.MaxScriptSize,
	}

	retries, err := taskRetryPolicies(cfg.Tasks)
	if err != nil {
		return nil, err
	}
	runner, err := buildTaskRunner(cfg.SMTP, logger)
	if err != nil {
		return nil, err
	}

	tasksService := service.NewTasksService(service.TasksServiceOptions{
		Tasks:    tasks,
		Executor: runner,
		Retries:  retries,
	}, logger)
	trackersService := service.NewTrackersService(service.TrackersServiceOptions{
		Trackers: trackers,
		Guard:    guard,
		Policy:   policy,
	}, logger)
	revisionsService := service.NewRevisionsService(service.RevisionsServiceOptions{
		Trackers:  trackers,
		Revisions: revisions,
	}, logger)
	pipeline := service.NewPipeline(service.PipelineOptions{
		Stores: service.PipelineStores{
			Trackers:      trackers,
			Revisions:     revisions,
			Jobs:          jobs,
			Notifications: notifications,
		},
		Engines: service.PipelineEngines{
			Scripts: scripts,
			Scraper: scraperClient,
			Parsers: parserRegistry,
			Guard:   guard,
		},
		Tasks:      tasksService,
		HTTPClient: fetchClient(),
		Policy:     policy,
	}, logger)

	schedulerService := service.NewSchedulerService(service.SchedulerServiceOptions{
		Jobs:     jobs,
		Trackers: trackers,
		Pipeline: pipeline,
		Tasks:    tasksService,
		Crons: service.RecurringCrons{
			TrackersSchedule: cfg.Scheduler.TrackersSchedule,
			TrackersRun:      cfg.Scheduler.TrackersRun,
			TasksRun:         cfg.Scheduler.TasksRun,
		},
		Logger: logger,
	})
	schedulerRunner, err := scheduler.NewRunner(scheduler.RunnerOptions{
		Scheduler: schedulerService,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build scheduler runner: %w", err)
	}

	router := httpx.NewRouter(httpx.RouterServices{
		Trackers:  trackersService,
		Revisions: revisionsService,
		Pipeline:  pipeline,
		Version:   Version,
		Logger:    logger,
	})

	return &Engine{
		Router:    router,
		Scheduler: schedulerRunner,
		Scripts:   scripts,
	}, nil
}

func taskRetryPolicies(cfg config.TasksConfig) (service.TaskRetryPolicies, error) {
	httpStrategy, err := cfg.HTTP.RetryStrategy.ToModel()
	if err != nil {
		return service.TaskRetryPolicies{}, fmt.Errorf("tasks.http.retry_strategy: %w", err)
	}
	emailStrategy, err := cfg.Email.RetryStrategy.ToModel()
	if err != nil {
		return service.TaskRetryPolicies{}, fmt.Errorf("tasks.email.retry_strategy: %w", err)
	}
	return service.TaskRetryPolicies{HTTP: httpStrategy, Email: emailStrategy}, nil
}

func buildTaskRunner(cfg config.SMTPConfig, logger *slog.Logger) (*taskrunner.Runner, error) {
	opts := taskrunner.RunnerOptions{
		HTTPClient: &http.Client{Timeout: outboundTimeout},
		Logger:     logger,
	}

	if cfg.Enabled() {
		smtp := &taskrunner.SMTPOptions{
			Address:  cfg.Address,
			Username: cfg.Username,
			Password: cfg.Password,
		}
		if cfg.CatchAll != nil {
			matcher, err := cfg.CatchAll.Compile()
			if err != nil {
				return nil, fmt.Errorf("smtp.catch_all.text_matcher: %w", err)
			}
			smtp.CatchAll = &taskrunner.CatchAllOptions{
				Recipient:   cfg.CatchAll.Recipient,
				TextMatcher: matcher,
			}
		}
		opts.SMTP = smtp
	} else {
		logger.Warn("smtp address not configured, email tasks will fail")
	}

	runner, err := taskrunner.NewRunner(opts)
	if err != nil {
		return nil, fmt.Errorf("build task runner: %w", err)
	}
	return runner, nil
}

// Run starts the admin API and the scheduler loop, and blocks until a signal
// arrives or one of them fails.
func Run(ctx context.Context, engine *Engine, cfg config.AppConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer engine.Scripts.Close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      engine.Router,
		ReadTimeout:  httpReadTimeout,
		WriteTimeout: httpWriteTimeout,
		IdleTimeout:  httpIdleTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting admin API", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("admin API: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := engine.Scheduler.Run(ctx); err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown admin API: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("stopped")
	return nil
}
