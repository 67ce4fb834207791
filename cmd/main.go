package main

import (
	"fmt"
	"os"

	"nutrilens/config"
	"nutrilens/utils"

	"github.com/spf13/cobra"
)

var settings *config.Settings

var rootCmd = &cobra.Command{
	Use:           "nutrilens",
	Short:         "NutriLens API server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Load()
		if err != nil {
			return err
		}
		if err := utils.InitLogger(s.LogLevel, s.LogDev); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		settings = s
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer utils.Log.Sync() //nolint:errcheck
		if err := config.InitDB(settings); err != nil {
			return err
		}
		return config.Migrate(config.DB)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
