// Command retrack runs the tracker engine: the admin API, the scheduler and
// the task queue in one process.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/retrack-dev/retrack/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	flags, err := bootstrap.ParseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	cfg, err := bootstrap.LoadConfig(flags)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "starting retrack",
		"version", bootstrap.Version,
		"port", cfg.Port,
		"db_host", cfg.DB.Host,
		"db_name", cfg.DB.Name)

	db, err := bootstrap.ConnectDB(cfg.DB, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()

	if err := bootstrap.RunMigrations(ctx, db, logger); err != nil {
		return err
	}

	engine, err := bootstrap.BuildEngine(bootstrap.EngineDeps{
		Config: cfg,
		DB:     db,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.Run(ctx, engine, cfg, logger)
}
