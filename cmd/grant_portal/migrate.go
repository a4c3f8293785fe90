package main

import (
	"github.com/jonathan/grant-portal/internal/config"
	"github.com/jonathan/grant-portal/internal/db/migrations"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd, func(env *dbEnv) error {
			if err := migrations.Up(cmd.Context(), env.db.Pool(), env.logger); err != nil {
				return err
			}
			env.logger.Info("migrations applied")
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied state of every migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd, func(env *dbEnv) error {
			return migrations.Status(cmd.Context(), env.db.Pool(), env.logger)
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

// withDatabase loads configuration, connects and runs fn. Auto-migration is
// not applied.
func withDatabase(cmd *cobra.Command, fn func(env *dbEnv) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	database, err := connect(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(&dbEnv{db: database, logger: logger})
}
