package main

import (
	"github.com/spf13/cobra"

	"github.com/iliyamo/planit/internal/config"
	"github.com/iliyamo/planit/internal/database"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := newLogger(cfg.LogLevel)
			db, err := database.Open(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db, cfg.DBDriver); err != nil {
				return err
			}
			logger.Info("schema ready", "driver", cfg.DBDriver)
			return nil
		},
	}
}
