package main

import (
	"github.com/spf13/cobra"

	"github.com/blues/ivs/internal/config"
	"github.com/blues/ivs/internal/logger"
	"github.com/blues/ivs/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if _, err := repository.Init(cfg.Database); err != nil {
			return err
		}
		logger.Info("Database migrated (%s)", cfg.Database.Driver)
		return nil
	},
}
