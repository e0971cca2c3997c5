package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/target/repeater/config"
	"github.com/target/repeater/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
}

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultCommandTimeout   = time.Minute
)

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		slog.Default().ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	logger, logCloser, err := bootstrap.InitLogger(cfg.Logging)
	if err != nil {
		slog.Default().ErrorContext(context.Background(), "init logger", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal logger setup failure to shell scripts
	}

	os.Exit(dispatch(&commandContext{ //nolint:forbidigo // CLI exit status reflects the command result
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
		Out:    os.Stdout,
	}, os.Args[1:], logCloser))
}

// dispatch runs the named command and returns the process exit status.
func dispatch(cmdCtx *commandContext, args []string, closer io.Closer) int {
	defer func() {
		if closer != nil {
			if err := closer.Close(); err != nil {
				cmdCtx.Logger.Warn("close log file failed", "error", err)
			}
		}
	}()

	if len(args) < 1 {
		if err := printUsage(os.Stderr); err != nil {
			cmdCtx.Logger.Error("print usage failed", "error", err)
		}
		return 2
	}

	cmdName := args[0]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			cmdCtx.Logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			cmdCtx.Logger.Error("print usage failed", "error", err)
		}
		return 2
	}

	if err := cmd.run(cmdCtx, args[1:]); err != nil {
		cmdCtx.Logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", err)
		return 1
	}
	return 0
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations for the postgres job store",
			run:         runMigrations,
		},
		"list-jobs": {
			name:        "list-jobs",
			description: "Show every job with its last run and when it is next due",
			run:         runListJobs,
		},
		"validate-jobs": {
			name:        "validate-jobs",
			description: "Check every job for unsupported kinds and invalid fields",
			run:         runValidateJobs,
		},
		"copy-jobs": {
			name:        "copy-jobs",
			description: "Copy the job store between the csv file and postgres",
			run:         runCopyJobs,
		},
		"clear-catalog-cache": {
			name:        "clear-catalog-cache",
			description: "Remove cached Tanium catalog listings from Redis",
			run:         runClearCatalogCache,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: repeater-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-24s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

type migrateOptions struct {
	Timeout time.Duration
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := commandContextWithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	cmdCtx.Logger.Info("running database migrations")

	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}

	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{
		Timeout: defaultMigrationTimeout,
	}

	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultMigrationTimeout,
		"Maximum duration to wait for migrations to complete",
	)

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}

	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

// commandContextWithTimeout bounds a command and cancels it on SIGINT or SIGTERM.
func commandContextWithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
