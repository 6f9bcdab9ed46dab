package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/desertthunder/studydesk/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the config file when missing, initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if _, err := os.Stat(configPath); err != nil && configPath != "" {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else if config, err := shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load created config, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
			r.config = config
		}
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	pending, err := shared.PendingMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}

	r.writePlain("✓ Database ready: %s\n", r.config.Database.Path)
	if len(pending) > 0 {
		r.writePlain("Pending migrations: %v\n", pending)
	}
	return nil
}

// openDatabase opens the configured SQLite database and brings its schema up to date.
func (r *Runner) openDatabase() (*sql.DB, error) {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.logger.Debug("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
