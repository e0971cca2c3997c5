package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/target/repeater/config"
	"github.com/target/repeater/internal/core"
	"github.com/target/repeater/internal/domain/model"
	"github.com/target/repeater/internal/domain/scheduler"
	"github.com/target/repeater/internal/util"
)

type storeOptions struct {
	Driver  string
	Path    string
	Timeout time.Duration
}

// storeFlags registers -driver and -path defaulting to the configured job store.
func storeFlags(fs *flag.FlagSet, cfg config.JobStoreConfig, opts *storeOptions) {
	fs.StringVar(&opts.Driver, "driver", string(cfg.Driver), "Job store driver (csv or postgres)")
	fs.StringVar(&opts.Path, "path", cfg.Path, "CSV job store path")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the command")
}

func (o storeOptions) storeConfig() (config.JobStoreConfig, error) {
	cfg := config.JobStoreConfig{
		Driver: config.JobStoreDriver(strings.ToLower(strings.TrimSpace(o.Driver))),
		Path:   strings.TrimSpace(o.Path),
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return config.JobStoreConfig{}, err
	}
	return cfg, nil
}

func parseStoreFlags(name string, cfg config.JobStoreConfig, args []string) (storeOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts storeOptions
	storeFlags(fs, cfg, &opts)
	if err := fs.Parse(args); err != nil {
		return storeOptions{}, err
	}
	if opts.Timeout <= 0 {
		return storeOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

// loadJobs opens the store described by opts and loads every job.
func loadJobs(cmdCtx *commandContext, opts storeOptions) ([]*model.JobSpec, error) {
	storeCfg, err := opts.storeConfig()
	if err != nil {
		return nil, err
	}

	ctx, cancel := commandContextWithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	store, closeStore, err := openJobStore(ctx, &openStoreRequest{
		Logger: cmdCtx.Logger,
		Config: &cmdCtx.Config,
		Store:  storeCfg,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			cmdCtx.Logger.Warn("close job store failed", "error", closeErr)
		}
	}()

	return store.Load(ctx)
}

func runListJobs(cmdCtx *commandContext, args []string) error {
	opts, err := parseStoreFlags("list-jobs", cmdCtx.Config.JobStore, args)
	if err != nil {
		return err
	}
	jobs, err := loadJobs(cmdCtx, opts)
	if err != nil {
		return err
	}
	return renderJobTable(cmdCtx.Out, jobs, time.Now())
}

func renderJobTable(w io.Writer, jobs []*model.JobSpec, now time.Time) error {
	if len(jobs) == 0 {
		return writeln(w, "No jobs found.")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "NAME\tSOURCE\tDESTINATION\tFORMAT\tEVERY\tLAST RUN\tDUE\tNEXT IN"); err != nil {
		return fmt.Errorf("write job header row: %w", err)
	}

	for _, job := range jobs {
		lastRun := "never"
		if job.LastRun != nil {
			lastRun = job.LastRun.Format(model.LastRunLayout)
		}
		due := scheduler.IsDue(job, now)
		nextIn := "now"
		if next, ok := scheduler.NextDue(job); ok && !due {
			nextIn = util.FormatDuration(next.Sub(now))
		}
		if err := writef(
			tw,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			job.Name,
			fmt.Sprintf("%s %q", job.Source, job.ComponentName),
			destinationLabel(job),
			job.Format,
			util.FormatDuration(scheduler.Interval(job)),
			lastRun,
			yesNo(due),
			nextIn,
		); err != nil {
			return fmt.Errorf("write job row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush job table: %w", err)
	}
	return nil
}

func destinationLabel(job *model.JobSpec) string {
	switch job.Destination {
	case model.DestinationObjectStore:
		return fmt.Sprintf("%s s3://%s/%s", job.Destination, job.BucketName, job.OutputPath)
	case model.DestinationLogIngestion:
		return string(job.Destination)
	default:
		return fmt.Sprintf("%s %s", job.Destination, job.OutputPath)
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func runValidateJobs(cmdCtx *commandContext, args []string) error {
	opts, err := parseStoreFlags("validate-jobs", cmdCtx.Config.JobStore, args)
	if err != nil {
		return err
	}
	jobs, err := loadJobs(cmdCtx, opts)
	if err != nil {
		return err
	}

	invalid, err := reportJobProblems(cmdCtx.Out, jobs)
	if err != nil {
		return err
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d jobs are invalid", invalid, len(jobs))
	}
	return nil
}

// reportJobProblems writes one line per job and returns how many jobs cannot run.
func reportJobProblems(w io.Writer, jobs []*model.JobSpec) (int, error) {
	invalid := 0
	for i, job := range jobs {
		problem := job.Supported()
		if problem == nil {
			problem = job.Validate()
		}
		status := "ok"
		if problem != nil {
			invalid++
			status = problem.Error()
		}
		if err := writef(w, "%3d  %-32s %s\n", i+1, job.Name, status); err != nil {
			return invalid, fmt.Errorf("write validation result: %w", err)
		}
	}
	return invalid, nil
}

type copyOptions struct {
	From     string
	FromPath string
	To       string
	ToPath   string
	Timeout  time.Duration
}

func parseCopyFlags(cfg config.JobStoreConfig, args []string) (copyOptions, error) {
	fs := flag.NewFlagSet("copy-jobs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts copyOptions
	fs.StringVar(&opts.From, "from", string(cfg.Driver), "Source job store driver (csv or postgres)")
	fs.StringVar(&opts.FromPath, "from-path", cfg.Path, "Source CSV job store path")
	fs.StringVar(&opts.To, "to", "", "Target job store driver (csv or postgres)")
	fs.StringVar(&opts.ToPath, "to-path", cfg.Path, "Target CSV job store path")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the copy")

	if err := fs.Parse(args); err != nil {
		return copyOptions{}, err
	}
	if strings.TrimSpace(opts.To) == "" {
		return copyOptions{}, errors.New("--to is required")
	}
	if opts.Timeout <= 0 {
		return copyOptions{}, errors.New("--timeout must be greater than zero")
	}
	if sameStore(opts) {
		return copyOptions{}, errors.New("source and target job stores are the same")
	}
	return opts, nil
}

func sameStore(opts copyOptions) bool {
	from := strings.ToLower(strings.TrimSpace(opts.From))
	to := strings.ToLower(strings.TrimSpace(opts.To))
	if from != to {
		return false
	}
	if config.JobStoreDriver(from) == config.JobStoreDriverPostgres {
		return true
	}
	return strings.TrimSpace(opts.FromPath) == strings.TrimSpace(opts.ToPath)
}

func runCopyJobs(cmdCtx *commandContext, args []string) error {
	opts, err := parseCopyFlags(cmdCtx.Config.JobStore, args)
	if err != nil {
		return err
	}

	jobs, err := loadJobs(cmdCtx, storeOptions{Driver: opts.From, Path: opts.FromPath, Timeout: opts.Timeout})
	if err != nil {
		return fmt.Errorf("load source jobs: %w", err)
	}

	targetCfg, err := storeOptions{Driver: opts.To, Path: opts.ToPath}.storeConfig()
	if err != nil {
		return err
	}

	ctx, cancel := commandContextWithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	target, closeTarget, err := openJobStore(ctx, &openStoreRequest{
		Logger: cmdCtx.Logger,
		Config: &cmdCtx.Config,
		Store:  targetCfg,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeTarget(); closeErr != nil {
			cmdCtx.Logger.Warn("close target job store failed", "error", closeErr)
		}
	}()

	if err := copyJobs(ctx, target, jobs); err != nil {
		return err
	}
	return writef(cmdCtx.Out, "Copied %d jobs from %s to %s.\n", len(jobs), opts.From, opts.To)
}

func copyJobs(ctx context.Context, target core.JobStore, jobs []*model.JobSpec) error {
	if err := target.Save(ctx, jobs); err != nil {
		return fmt.Errorf("save target jobs: %w", err)
	}
	return nil
}
