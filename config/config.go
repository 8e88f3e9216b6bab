// Package config defines the engine configuration: a TOML file overlaid with
// RETRACK_-prefixed environment variables (double underscore separates
// nesting, e.g. RETRACK_DB__HOST).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config file read when -c/--config is not given.
const DefaultPath = "retrack.toml"

// EnvPrefix namespaces every environment override.
const EnvPrefix = "RETRACK_"

// AppConfig is the root configuration.
type AppConfig struct {
	// Port is the admin HTTP port.
	Port int `toml:"port" env:"PORT"`
	// PublicURL is the external base URL used in notification bodies.
	PublicURL string `toml:"public_url" env:"PUBLIC_URL"`

	DB         DBConfig         `toml:"db"         envPrefix:"DB__"`
	Components ComponentsConfig `toml:"components" envPrefix:"COMPONENTS__"`
	Scheduler  SchedulerConfig  `toml:"scheduler"  envPrefix:"SCHEDULER__"`
	Trackers   TrackersConfig   `toml:"trackers"   envPrefix:"TRACKERS__"`
	JSRuntime  JSRuntimeConfig  `toml:"js_runtime" envPrefix:"JS_RUNTIME__"`
	SMTP       SMTPConfig       `toml:"smtp"       envPrefix:"SMTP__"`
	Tasks      TasksConfig      `toml:"tasks"      envPrefix:"TASKS__"`
}

// DBConfig describes the PostgreSQL connection.
type DBConfig struct {
	Name     string `toml:"name"     env:"NAME"`
	Host     string `toml:"host"     env:"HOST"`
	Port     int    `toml:"port"     env:"PORT"`
	Username string `toml:"username" env:"USERNAME"`
	Password string `toml:"password" env:"PASSWORD"`
	// MaxConnections is the fixed pool size shared by all components.
	MaxConnections int `toml:"max_connections" env:"MAX_CONNECTIONS"`
}

// ComponentsConfig points at the external collaborators.
type ComponentsConfig struct {
	// WebScraperURL is the base URL of the headless-browser page renderer.
	WebScraperURL string `toml:"web_scraper_url" env:"WEB_SCRAPER_URL"`
}

// SchedulerConfig carries the cron sources of the three recurring jobs.
type SchedulerConfig struct {
	TrackersSchedule string `toml:"trackers_schedule" env:"TRACKERS_SCHEDULE"`
	TrackersRun      string `toml:"trackers_run"      env:"TRACKERS_RUN"`
	TasksRun         string `toml:"tasks_run"         env:"TASKS_RUN"`
}

// TrackersConfig is the server-side tracker policy.
type TrackersConfig struct {
	// MaxRevisions caps per-tracker history depth.
	MaxRevisions int `toml:"max_revisions" env:"MAX_REVISIONS"`
	// MaxTimeout caps the per-fetch timeout a tracker may declare.
	MaxTimeout Duration `toml:"max_timeout" env:"MAX_TIMEOUT"`
	// Schedules, when non-empty, whitelists the exact cron patterns trackers
	// may use.
	Schedules []string `toml:"schedules" env:"SCHEDULES"`
	// MinScheduleInterval floors the gap between two cron occurrences.
	MinScheduleInterval Duration `toml:"min_schedule_interval" env:"MIN_SCHEDULE_INTERVAL"`
	// MinRetryInterval floors the delays a tracker retry strategy may produce.
	MinRetryInterval Duration `toml:"min_retry_interval" env:"MIN_RETRY_INTERVAL"`
	// RestrictToPublicURLs rejects targets resolving to private addresses.
	RestrictToPublicURLs bool `toml:"restrict_to_public_urls" env:"RESTRICT_TO_PUBLIC_URLS"`
	// MaxScriptSize caps user script source size in bytes.
	MaxScriptSize int `toml:"max_script_size" env:"MAX_SCRIPT_SIZE"`
}

// JSRuntimeConfig caps user script execution.
type JSRuntimeConfig struct {
	// MaxHeapSize is the per-execution heap budget in bytes.
	MaxHeapSize int64 `toml:"max_heap_size" env:"MAX_HEAP_SIZE"`
	// MaxScriptExecutionTime aborts scripts that run longer.
	MaxScriptExecutionTime Duration `toml:"max_script_execution_time" env:"MAX_SCRIPT_EXECUTION_TIME"`
}

// SMTPConfig describes the mail transport. Email delivery is disabled while
// Address is empty.
type SMTPConfig struct {
	Username string `toml:"username" env:"USERNAME"`
	Password string `toml:"password" env:"PASSWORD"`
	// Address is the relay endpoint as host:port.
	Address  string          `toml:"address" env:"ADDRESS"`
	CatchAll *CatchAllConfig `toml:"catch_all" envPrefix:"CATCH_ALL__"`
}

// Enabled reports whether a mail transport is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Address != ""
}

// CatchAllConfig redirects outbound mail in test environments: mail whose
// text body matches the regex goes to the single catch-all recipient.
type CatchAllConfig struct {
	Recipient   string `toml:"recipient"    env:"RECIPIENT"`
	TextMatcher string `toml:"text_matcher" env:"TEXT_MATCHER"`
}

// TasksConfig carries per-kind task delivery retry strategies.
type TasksConfig struct {
	HTTP  TaskConfig `toml:"http"  envPrefix:"HTTP__"`
	Email TaskConfig `toml:"email" envPrefix:"EMAIL__"`
}

// TaskConfig configures one task kind.
type TaskConfig struct {
	RetryStrategy RetryStrategyConfig `toml:"retry_strategy" envPrefix:"RETRY_STRATEGY__"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() AppConfig {
	return AppConfig{
		Port:      7676,
		PublicURL: "http://localhost:7676/",
		DB: DBConfig{
			Name:           "retrack",
			Host:           "localhost",
			Port:           5432,
			Username:       "retrack",
			MaxConnections: 100,
		},
		Components: ComponentsConfig{
			WebScraperURL: "http://localhost:7272/",
		},
		Scheduler: SchedulerConfig{
			TrackersSchedule: "0/10 * * * * *",
			TrackersRun:      "0/10 * * * * *",
			TasksRun:         "0/30 * * * * *",
		},
		Trackers: TrackersConfig{
			MaxRevisions:         30,
			MaxTimeout:           Duration(300 * time.Second),
			MinScheduleInterval:  Duration(10 * time.Second),
			MinRetryInterval:     Duration(10 * time.Second),
			RestrictToPublicURLs: true,
			MaxScriptSize:        4 * 1024,
		},
		JSRuntime: JSRuntimeConfig{
			MaxHeapSize:            10 * 1024 * 1024,
			MaxScriptExecutionTime: Duration(10 * time.Second),
		},
		Tasks: TasksConfig{
			HTTP:  TaskConfig{RetryStrategy: defaultTaskRetryStrategy()},
			Email: TaskConfig{RetryStrategy: defaultTaskRetryStrategy()},
		},
	}
}

func defaultTaskRetryStrategy() RetryStrategyConfig {
	return RetryStrategyConfig{
		Type:        "exponential",
		Initial:     Duration(60 * time.Second),
		Multiplier:  2,
		Max:         Duration(600 * time.Second),
		MaxAttempts: 3,
	}
}

// Load reads the configuration: defaults, then the TOML file, then
// environment overrides. A missing file is only an error when its path was
// explicitly given.
func Load(path string, pathExplicit bool) (AppConfig, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !pathExplicit:
		// Defaults plus environment only.
	default:
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that TOML and env parsing cannot.
func (c AppConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	if c.DB.MaxConnections <= 0 {
		return errors.New("db.max_connections must be positive")
	}
	if c.Components.WebScraperURL == "" {
		return errors.New("components.web_scraper_url is required")
	}
	for name, source := range map[string]string{
		"scheduler.trackers_schedule": c.Scheduler.TrackersSchedule,
		"scheduler.trackers_run":      c.Scheduler.TrackersRun,
		"scheduler.tasks_run":         c.Scheduler.TasksRun,
	} {
		if source == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	if _, err := c.Tasks.HTTP.RetryStrategy.ToModel(); err != nil {
		return fmt.Errorf("tasks.http.retry_strategy: %w", err)
	}
	if _, err := c.Tasks.Email.RetryStrategy.ToModel(); err != nil {
		return fmt.Errorf("tasks.email.retry_strategy: %w", err)
	}
	if c.SMTP.CatchAll != nil {
		if _, err := c.SMTP.CatchAll.Compile(); err != nil {
			return fmt.Errorf("smtp.catch_all.text_matcher: %w", err)
		}
	}
	return nil
}
