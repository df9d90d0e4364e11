package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mimo/internal/shared"
	"github.com/desertthunder/mimo/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CacheSweep deletes expired entries from the configured store.
func (r *Runner) CacheSweep(ctx context.Context, cmd *cli.Command) error {
	core, err := r.App(ctx)
	if err != nil {
		return err
	}

	n, err := core.SweepCache(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep cache: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]int{"removed": n}, false)
	}
	return r.writePlain("✓ Removed %d expired cache entries\n", n)
}

// CacheInvalidate deletes one entry, by raw key or by the request that produced it.
func (r *Runner) CacheInvalidate(ctx context.Context, cmd *cli.Command) error {
	var keys []string
	if k := cmd.String("key"); k != "" {
		keys = append(keys, k)
	}
	if q := cmd.String("query"); q != "" {
		keys = append(keys, tasks.SearchKey(q))
	}
	if cmd.IsSet("trending") {
		keys = append(keys, tasks.TrendingKey(int(cmd.Int("trending"))))
	}

	switch len(keys) {
	case 0:
		return fmt.Errorf("%w: one of --key, --query or --trending must be provided", shared.ErrMissingArgument)
	case 1:
	default:
		return fmt.Errorf("%w: --key, --query and --trending are mutually exclusive", shared.ErrInvalidArgument)
	}

	core, err := r.App(ctx)
	if err != nil {
		return err
	}

	if err := core.InvalidateCache(ctx, keys[0]); err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", keys[0], err)
	}

	r.logger.Info("cache entry invalidated", "key", keys[0])
	return r.writePlain("✓ Invalidated %s\n", keys[0])
}

// CacheClear deletes every entry from the configured store.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	core, err := r.App(ctx)
	if err != nil {
		return err
	}

	if err := core.ClearCache(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return r.writePlain("✓ Cache cleared (%s)\n", r.config.Cache.Driver)
}
