package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/target/repeater/internal/core"
	"github.com/target/repeater/internal/data"
)

type cacheClearOptions struct {
	Kinds   []core.CatalogKind
	Timeout time.Duration
}

func parseCacheClearFlags(args []string) (cacheClearOptions, error) {
	fs := flag.NewFlagSet("clear-catalog-cache", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		kinds string
		opts  cacheClearOptions
	)
	fs.StringVar(&kinds, "kind", "", "Comma-separated catalogs to clear (reports, views, questions); default all")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the command")

	if err := fs.Parse(args); err != nil {
		return cacheClearOptions{}, err
	}
	if opts.Timeout <= 0 {
		return cacheClearOptions{}, errors.New("--timeout must be greater than zero")
	}

	parsed, err := parseCatalogKinds(kinds)
	if err != nil {
		return cacheClearOptions{}, err
	}
	opts.Kinds = parsed
	return opts, nil
}

func parseCatalogKinds(raw string) ([]core.CatalogKind, error) {
	var kinds []core.CatalogKind
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		kind := core.CatalogKind(name)
		if !slices.Contains(core.CatalogKinds, kind) {
			return nil, fmt.Errorf("unknown catalog %q (valid options: reports, views, questions)", name)
		}
		if !slices.Contains(kinds, kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}

func runClearCatalogCache(cmdCtx *commandContext, args []string) error {
	opts, err := parseCacheClearFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := commandContextWithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	client, err := maybeConnectRedis(ctx, cmdCtx.Logger, &cmdCtx.Config.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeInfra(nil, client); closeErr != nil {
			cmdCtx.Logger.Warn("close redis failed", "error", closeErr)
		}
	}()

	svc := core.NewCatalogCacheService(core.CatalogCacheServiceOptions{
		Cache:  data.NewRedisCacheRepo(client, cmdCtx.Config.Cache.KeyPrefix),
		Logger: cmdCtx.Logger,
	})
	removed, err := svc.Invalidate(ctx, opts.Kinds...)
	if err != nil {
		return fmt.Errorf("clear catalog cache: %w", err)
	}
	return writef(cmdCtx.Out, "Removed %d cached catalog listings.\n", removed)
}
