package main

import (
	"fmt"
	"log/slog"
	"os"

	"imagestore/internal/config"
	"imagestore/internal/logging"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "imagestore",
	Short:         "Multi-user, content addressed image store",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	slog.SetDefault(logging.CreateLogger())
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to execute command", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config-dir", nil, "directories searched for settings.yml (default ./configs and /configs)")
	rootCmd.AddCommand(serveCmd, migrateCmd, useraddCmd, configCmd)
}

// loadConfig reads the configuration; validate is skipped by commands that
// only display it.
func loadConfig(cmd *cobra.Command, validate bool) (*config.Config, error) {
	dirs, err := cmd.Flags().GetStringSlice("config-dir")
	if err != nil {
		return nil, fmt.Errorf("failed to get config-dir: %w", err)
	}

	cfg, err := config.Load(dirs...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return cfg, nil
}
