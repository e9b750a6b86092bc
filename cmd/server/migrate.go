package main

import (
	"log/slog"

	"imagestore/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Applies pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, true)
		if err != nil {
			return err
		}

		pool, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := database.Migrate(cmd.Context(), pool)
		if err != nil {
			return err
		}

		if len(applied) == 0 {
			slog.Info("database schema already up to date")
			return nil
		}
		slog.Info("applied migrations", "versions", applied)
		return nil
	},
}
