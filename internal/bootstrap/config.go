// Package bootstrap wires configuration, storage, engines and services into a
// runnable process.
package bootstrap

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/retrack-dev/retrack/config"
)

// Version is stamped at build time.
var Version = "dev"

// InitLogger initializes the structured logger.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// Flags are the command line options.
type Flags struct {
	// ConfigPath is the TOML file to read.
	ConfigPath string
	// ConfigExplicit is true when the path came from a flag or RETRACK_CONFIG,
	// making a missing file an error.
	ConfigExplicit bool
	// Port, when positive, overrides the configured admin port.
	Port int
}

// ParseFlags reads -c/--config and -p/--port, falling back to the
// RETRACK_CONFIG and RETRACK_PORT environment variables.
func ParseFlags(args []string) (Flags, error) {
	fs := flag.NewFlagSet("retrack", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the TOML config file")
	fs.StringVar(configPath, "c", "", "path to the TOML config file (shorthand)")
	port := fs.Int("port", 0, "admin HTTP port")
	fs.IntVar(port, "p", 0, "admin HTTP port (shorthand)")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	flags := Flags{ConfigPath: *configPath, Port: *port}
	if flags.ConfigPath == "" {
		flags.ConfigPath = os.Getenv("RETRACK_CONFIG")
	}
	flags.ConfigExplicit = flags.ConfigPath != ""
	if flags.ConfigPath == "" {
		flags.ConfigPath = config.DefaultPath
	}

	if flags.Port == 0 {
		if raw := os.Getenv("RETRACK_PORT"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return Flags{}, fmt.Errorf("invalid RETRACK_PORT %q: %w", raw, err)
			}
			flags.Port = parsed
		}
	}
	return flags, nil
}

// LoadConfig loads the configuration file with environment overrides and
// applies the CLI port override.
func LoadConfig(flags Flags) (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	cfg, err := config.Load(flags.ConfigPath, flags.ConfigExplicit)
	if err != nil {
		return cfg, err
	}

	if flags.Port > 0 {
		cfg.Port = flags.Port
	}
	return cfg, nil
}
