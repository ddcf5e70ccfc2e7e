package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/tracklist/internal/repositories"
	"github.com/desertthunder/tracklist/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes config.toml from the embedded template.
//
// With --force an existing file is overwritten with the settings currently in effect, which
// includes any TRACKLIST_* overrides.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if _, err := os.Stat(path); err == nil {
		if !cmd.Bool("force") {
			return fmt.Errorf("%w: %s already exists, use --force to overwrite", shared.ErrInvalidArgument, path)
		}
		if err := shared.SaveConfig(path, r.config); err != nil {
			return err
		}
		r.logger.Info("config file rewritten", "path", path)
		return r.writePlain("✓ Config written to %s\n", path)
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set api.base_url, or run 'tracklist sandbox' for a local API\n")
	r.writePlain("2. Add a RapidAPI key (TRACKLIST_RAPIDAPI_KEY) or Spotify client credentials for search\n")
	return r.writePlain("3. Run 'tracklist auth register' or 'tracklist auth login'\n")
}

// SetupDatabase initializes the session database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Database
	r.logger.Info("initializing database", "path", cfg.Path)

	db, err := shared.NewDatabase(ctx, cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back last migration")
		if err := shared.RollbackMigration(ctx, db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
	} else {
		r.logger.Info("running database migrations")
		if err := shared.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	version, err := shared.CurrentVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if cmd.Bool("purge") && version > 0 {
		removed, err := repositories.NewSessionRepository(db).Purge(ctx)
		if err != nil {
			return err
		}
		r.writePlain("✓ Purged %d signed-out sessions\n", removed)
	}

	r.logger.Infof("setup complete for database: %v", cfg.Path)
	return r.writePlain("✓ Database ready at %s (schema version %d)\n", cfg.Path, version)
}
