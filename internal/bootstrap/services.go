package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/target/repeater/config"
	"github.com/target/repeater/internal/adapters/destination"
	"github.com/target/repeater/internal/adapters/scheduler"
	"github.com/target/repeater/internal/adapters/tanium"
	"github.com/target/repeater/internal/core"
	"github.com/target/repeater/internal/data"
	"github.com/target/repeater/internal/domain/transform"
	"github.com/target/repeater/internal/observability/notify/pagerduty"
	"github.com/target/repeater/internal/observability/notify/slack"
	"github.com/target/repeater/internal/observability/statsd"
	"github.com/target/repeater/internal/service"
	"github.com/target/repeater/internal/service/failurenotifier"
)

// ServiceContainer holds the wired export runner and the resources it owns.
type ServiceContainer struct {
	Store         core.JobStore
	Catalog       *core.CatalogCacheService
	Jobs          *service.JobRunner
	Scheduler     *scheduler.Runner
	Observability ObservabilityContainer

	closers []namedCloser
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     *statsd.Client
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB               // Required for the postgres job store
	RedisClient redis.UniversalClient // Optional: enables the catalog cache
	Logger      *slog.Logger
}

type namedCloser struct {
	name   string
	closer io.Closer
}

// NewServices wires the job store, Tanium client, destinations, and observers into a
// scheduler-driven job runner.
func NewServices(ctx context.Context, deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service deps missing AppConfig")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observability := buildObservability(ctx, logger, cfg.Observability)
	container := &ServiceContainer{Observability: observability}
	if observability.MetricsSink != nil {
		container.closers = append(container.closers, namedCloser{name: "statsd", closer: observability.MetricsSink})
	}
	built := false
	defer func() {
		if !built {
			if err := container.Close(); err != nil {
				logger.Warn("release partially built services", "error", err)
			}
		}
	}()

	store, err := BuildJobStore(cfg.JobStore, deps.DB, logger)
	if err != nil {
		return nil, err
	}
	container.Store = store
	container.Catalog = newCatalogCacheService(deps.RedisClient, cfg.Cache, logger)

	source, err := tanium.NewClient(tanium.Options{
		Server:             cfg.Tanium.Server,
		Token:              cfg.Tanium.Token,
		Timeout:            cfg.Tanium.Timeout,
		InsecureSkipVerify: cfg.Tanium.InsecureSkipVerify,
		Catalog:            container.Catalog,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build tanium client: %w", err)
	}

	router, err := buildDestinations(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var notifier service.FailureNotifier
	if observability.FailureNotifier != nil {
		notifier = observability.FailureNotifier
	}
	var metricsSink statsd.Sink
	if observability.MetricsSink != nil {
		metricsSink = observability.MetricsSink
	}

	container.Jobs = service.NewJobRunner(service.JobRunnerOptions{
		Store:       store,
		Source:      source,
		Destination: router,
		Transformer: transform.New(transform.Options{PrimaryTable: cfg.Tanium.PrimaryTable}),
		Observers: service.RunnerObservers{
			Metrics:  metricsSink,
			Notifier: notifier,
		},
		Logger: logger,
	})

	container.Scheduler, err = scheduler.NewRunner(scheduler.RunnerOptions{
		Cycles:   container.Jobs,
		Interval: cfg.Runner.Interval,
		Logger:   logger,
		Metrics:  metricsSink,
	})
	if err != nil {
		return nil, fmt.Errorf("build scheduler: %w", err)
	}

	built = true
	return container, nil
}

// Close releases resources owned by the container. The database and Redis handles
// passed in ServiceDeps stay with the caller.
func (c *ServiceContainer) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, nc := range c.closers {
		if err := nc.closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", nc.name, err))
		}
	}
	return errors.Join(errs...)
}

func buildObservability(ctx context.Context, logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(ctx, statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:     metricsSink,
		MetricsConfig:   cfg.Metrics,
		FailureNotifier: buildFailureNotifier(obsLogger, cfg.Notifications),
		NotifierConfig:  cfg.Notifications,
	}
}

// BuildJobStore returns the job store selected by cfg.Driver.
//
//nolint:ireturn // callers only need the JobStore port.
func BuildJobStore(cfg config.JobStoreConfig, db *sql.DB, logger *slog.Logger) (core.JobStore, error) {
	switch cfg.Driver {
	case config.JobStoreDriverPostgres:
		if db == nil {
			return nil, errors.New("postgres job store requires a database connection")
		}
		return data.NewPostgresJobStore(data.PostgresJobStoreOptions{DB: db, Logger: logger}), nil
	case config.JobStoreDriverCSV, "":
		return data.NewCSVJobStore(data.CSVJobStoreOptions{Path: cfg.Path, Logger: logger}), nil
	default:
		return nil, fmt.Errorf("unknown job store driver %q", cfg.Driver)
	}
}

// newCatalogCacheService returns nil when caching is disabled or Redis is unavailable;
// the Tanium client then lists catalogs on every lookup.
func newCatalogCacheService(client redis.UniversalClient, cfg config.CacheConfig, logger *slog.Logger) *core.CatalogCacheService {
	if !cfg.Enabled || client == nil {
		return nil
	}
	return core.NewCatalogCacheService(core.CatalogCacheServiceOptions{
		Cache:  data.NewRedisCacheRepo(client, cfg.KeyPrefix),
		Config: core.CatalogCacheConfig{TTL: cfg.CatalogTTL},
		Logger: logger,
	})
}

// buildDestinations registers every destination the configuration allows. Jobs routed to a
// missing destination fail at delivery with a configuration error.
func buildDestinations(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*destination.Router, error) {
	router := &destination.Router{File: destination.NewFileDestination(logger)}

	if cfg.ObjectStore.Enabled {
		uploader, err := destination.NewS3Uploader(ctx, destination.S3Config{
			Region:          cfg.ObjectStore.Region,
			AccessKeyID:     cfg.ObjectStore.AccessKeyID,
			SecretAccessKey: cfg.ObjectStore.SecretAccessKey,
			SessionToken:    cfg.ObjectStore.SessionToken,
			Endpoint:        cfg.ObjectStore.Endpoint,
		})
		if err != nil {
			logger.Warn("object store destination disabled", "error", err)
		} else {
			router.ObjectStore = destination.NewObjectStoreDestination(destination.ObjectStoreOptions{
				Uploader:   uploader,
				StagingDir: cfg.ObjectStore.StagingDir,
				Logger:     logger,
			})
		}
	}

	if cfg.Splunk.IsConfigured() {
		splunk, err := destination.NewSplunkDestination(destination.SplunkConfig{
			Server:             cfg.Splunk.Server,
			Token:              cfg.Splunk.Token,
			Timeout:            cfg.Splunk.Timeout,
			InsecureSkipVerify: cfg.Splunk.InsecureSkipVerify,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build splunk destination: %w", err)
		}
		router.Splunk = splunk
	}

	return router, nil
}

func buildFailureNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{
			Logger: baseLogger.With("component", "failure_notifier"),
		})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "slack",
				Sink: client,
			})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "pagerduty",
				Sink: client,
			})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger: baseLogger.With("component", "failure_notifier"),
		Sinks:  sinks,
	})
}

// RunServicesWithShutdown runs the scheduler until it finishes, fails, or the process
// receives SIGINT or SIGTERM. A cycle in flight when the signal arrives still saves the store.
func RunServicesWithShutdown(ctx context.Context, services *ServiceContainer, logger *slog.Logger) error {
	if services == nil || services.Scheduler == nil {
		return errors.New("service container missing scheduler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		return services.Scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		if sigCtx.Err() != nil && ctx.Err() == nil {
			logger.Info("shutting down export runner...")
		}
		return nil
	})

	return g.Wait()
}
