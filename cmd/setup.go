package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spx/internal/shared"
)

// loadOrCreateConfig reads configPath, writing the embedded template first when the file is missing.
func (r *Runner) loadOrCreateConfig(configPath string) *shared.Config {
	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			return shared.DefaultConfig()
		}
		r.logger.Info("config file created", "path", configPath)
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		return shared.DefaultConfig()
	}
	return config
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.loadOrCreateConfig(cmd.String("config"))

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
	} else {
		r.logger.Info("running database migrations")
		if err := shared.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ Database ready at %s (schema version %d)\n", config.Database.Path, version)
}

// SetupConfig writes the config file and fills in any credentials passed as flags.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	config := r.loadOrCreateConfig(configPath)

	changed := false
	for flag, field := range map[string]*string{
		"client-id":     &config.Credentials.Spotify.ClientID,
		"client-secret": &config.Credentials.Spotify.ClientSecret,
		"redirect-uri":  &config.Credentials.Spotify.RedirectURI,
	} {
		if v := strings.TrimSpace(cmd.String(flag)); v != "" {
			*field = v
			changed = true
		}
	}

	if changed {
		if err := shared.SaveConfig(configPath, config); err != nil {
			return err
		}
		r.logger.Info("config updated", "path", configPath)
	}

	r.writePlain("✓ Config file: %s\n", configPath)
	if err := config.Validate(); err != nil {
		r.writePlainln("Next steps:")
		r.writePlain("1. Create an app at https://developer.spotify.com/dashboard\n")
		r.writePlain("2. Add %s as a redirect URI\n", config.Credentials.Spotify.RedirectURI)
		r.writePlain("3. Run 'spx setup config --client-id <id> --client-secret <secret>'\n")
		return nil
	}
	return r.writePlain("Credentials configured. Run 'spx auth login' to sign in.\n")
}
