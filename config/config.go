package config

import (
	"errors"
	"fmt"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - jobs.go: Job store, runner and logging configuration
//   - sources.go: Tanium inventory API configuration
//   - destinations.go: Splunk and object store configuration
//   - database.go: Database and cache configuration
//   - observability.go: Metrics and failure notifications
type AppConfig struct {
	JobStore JobStoreConfig
	Runner   RunnerConfig
	Logging  LoggingConfig

	Tanium      TaniumConfig
	Splunk      SplunkConfig
	ObjectStore ObjectStoreConfig

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Cache    CacheConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.JobStore.Sanitize()
	c.Runner.Sanitize()
	c.Logging.Sanitize()
	c.Tanium.Sanitize()
	c.Splunk.Sanitize()
	c.ObjectStore.Sanitize()
	c.Cache.Sanitize()
	c.Observability.Sanitize()
}

// Validate reports configuration that would prevent a cycle from running.
// Splunk and the object store are optional here; jobs that need them fail at delivery.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.JobStore.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Tanium.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Runner.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// UsesPostgres reports whether any component needs a database connection.
func (c *AppConfig) UsesPostgres() bool {
	return c.JobStore.Driver == JobStoreDriverPostgres
}
