package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tvx/internal/shared"
)

// SetupDatabase creates the config file from the embedded template when missing,
// then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	configPath := cmd.String("config")

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			return err
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		if config, err = shared.LoadConfig(configPath); err != nil {
			return err
		}
		r.writePlain("✓ Config created at %s\n", configPath)
	}
	r.close()
	r.config, r.configPath = config, configPath
	r.db = nil

	r.logger.Info("initializing database", "path", config.Database.Path)
	if _, err := r.database(); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("✓ Database ready at %s\n", config.Database.Path)

	if config.Credentials.Spotify.Token() == nil {
		r.writePlain("%s\n", r.palette.Help("Set your Spotify client_id and client_secret in "+configPath+", then run: tvx auth"))
	}
	return nil
}
