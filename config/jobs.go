package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// JobStoreDriver selects the job store backend.
type JobStoreDriver string

const (
	// JobStoreDriverCSV keeps jobs in a CSV file.
	JobStoreDriverCSV JobStoreDriver = "csv"
	// JobStoreDriverPostgres keeps jobs in the export_jobs table.
	JobStoreDriverPostgres JobStoreDriver = "postgres"
)

// JobStoreConfig contains job store configuration.
type JobStoreConfig struct {
	Driver JobStoreDriver `env:"JOBSTORE_DRIVER" envDefault:"csv"`
	// Path is the CSV job store file.
	Path string `env:"JOBSTORE_PATH" envDefault:"config.txt"`
}

// Sanitize normalises the driver name.
func (c *JobStoreConfig) Sanitize() {
	c.Driver = JobStoreDriver(strings.ToLower(strings.TrimSpace(string(c.Driver))))
	if c.Driver == "" {
		c.Driver = JobStoreDriverCSV
	}
	c.Path = strings.TrimSpace(c.Path)
}

// Validate checks the driver and its required settings.
func (c *JobStoreConfig) Validate() error {
	switch c.Driver {
	case JobStoreDriverCSV:
		if c.Path == "" {
			return errors.New("JOBSTORE_PATH is required for the csv job store")
		}
		return nil
	case JobStoreDriverPostgres:
		return nil
	default:
		return fmt.Errorf("invalid JOBSTORE_DRIVER %q (valid options: csv, postgres)", c.Driver)
	}
}

// RunnerConfig contains export runner configuration.
type RunnerConfig struct {
	// Interval between cycles. Zero runs a single cycle and exits.
	Interval time.Duration `env:"RUNNER_INTERVAL" envDefault:"0s"`
}

// Sanitize applies guardrails to runner configuration values.
func (c *RunnerConfig) Sanitize() {
	if c.Interval > 0 && c.Interval < time.Minute {
		c.Interval = time.Minute
	}
}

// Validate rejects negative intervals.
func (c *RunnerConfig) Validate() error {
	if c.Interval < 0 {
		return errors.New("RUNNER_INTERVAL must not be negative")
	}
	return nil
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	// File additionally receives every log line when set.
	File string `env:"LOG_FILE"`
}

// Sanitize normalises the level name.
func (c *LoggingConfig) Sanitize() {
	c.Level = strings.ToLower(strings.TrimSpace(c.Level))
	c.File = strings.TrimSpace(c.File)
}

// SlogLevel maps Level to a slog level, defaulting to info.
func (c *LoggingConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
