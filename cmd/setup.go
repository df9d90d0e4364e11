package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/mimo/internal/repositories"
	"github.com/desertthunder/mimo/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the cache database and runs migrations.
// With --rollback it reverts the latest applied migration instead.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if r.config.Cache.Driver != shared.CacheDriverSQLite {
		r.logger.Warn("cache driver is not sqlite, the database will not be used", "driver", r.config.Cache.Driver)
	}

	if cmd.Bool("rollback") {
		return r.rollbackDatabase(ctx)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := repositories.Open(ctx, r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready: %s\n", r.config.Database.Path)
}

func (r *Runner) rollbackDatabase(ctx context.Context) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	m, err := shared.RollbackMigration(ctx, db)
	if errors.Is(err, shared.ErrNoMigrations) {
		return r.writePlain("Nothing to roll back: %s\n", r.config.Database.Path)
	}
	if err != nil {
		return err
	}

	r.logger.Info("rolled back migration", "migration", m.String(), "path", r.config.Database.Path)
	return r.writePlain("✓ Rolled back %s\n", m)
}

// SetupConfig writes the configuration template to --output, or the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		return fmt.Errorf("%w: config path is required", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Next steps:\n")
	r.writePlain("1. Set credentials.licensed.api_key and credentials.community.client_id (or MIMO_* env vars)\n")
	return r.writePlain("2. Run 'mimo setup database' then 'mimo search \"your song\"'\n")
}
