package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/target/repeater/config"
	"github.com/target/repeater/internal/bootstrap"
	"github.com/target/repeater/internal/core"
)

var errRedisNotConfigured = errors.New("redis not configured")

type openStoreRequest struct {
	Logger *slog.Logger
	Config *config.AppConfig
	Store  config.JobStoreConfig
}

// openJobStore opens the store named by req.Store. The returned close func releases the
// database connection when one was opened.
//
//nolint:ireturn // callers only need the JobStore port.
func openJobStore(ctx context.Context, req *openStoreRequest) (core.JobStore, func() error, error) {
	var db *sql.DB
	if req.Store.Driver == config.JobStoreDriverPostgres {
		var err error
		db, err = bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: req.Config.Postgres, Logger: req.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
	}

	store, err := bootstrap.BuildJobStore(req.Store, db, req.Logger)
	if err != nil {
		return nil, nil, errors.Join(err, closeInfra(db, nil))
	}
	return store, func() error { return closeInfra(db, nil) }, nil
}

// maybeConnectRedis returns a connected client when configuration is present.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func maybeConnectRedis(ctx context.Context, logger *slog.Logger, cfg *config.RedisConfig) (redis.UniversalClient, error) {
	if !hasRedisConfig(cfg) {
		return nil, errRedisNotConfigured
	}
	client, err := bootstrap.ConnectRedis(ctx, bootstrap.DatabaseConfig{RedisConfig: *cfg, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func hasRedisConfig(cfg *config.RedisConfig) bool {
	return cfg != nil && strings.TrimSpace(cfg.URI) != ""
}

func closeInfra(db *sql.DB, redisClient redis.UniversalClient) error {
	var closeErr error
	if db != nil {
		if err := db.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close db: %w", err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close redis: %w", err))
		}
	}
	return closeErr
}
