// Command migrate applies or rolls back the database schema outside of
// server startup.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/activity-reports-api/internal/config"
	"github.com/activity-reports-api/internal/database"
	"github.com/activity-reports-api/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var path string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the activity reports database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&path, "path", "", "Migrations directory (default: MIGRATIONS_PATH or ./migrations)")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(path, func(db *database.DB, dir string) error {
					return db.RunMigrations(dir)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last applied migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(path, func(db *database.DB, dir string) error {
					return db.MigrateDown(dir)
				})
			},
		},
		&cobra.Command{
			Use:   "goto VERSION",
			Short: "Migrate up or down to VERSION",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return withDB(path, func(db *database.DB, dir string) error {
					return db.MigrateToVersion(dir, uint(version))
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(path, func(db *database.DB, dir string) error {
					version, dirty, err := db.SchemaVersion(dir)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
					return nil
				})
			},
		},
	)

	return root
}

// withDB loads configuration, connects and runs fn against the migrations dir
func withDB(path string, fn func(db *database.DB, dir string) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if path == "" {
		path = cfg.Server.MigrationsPath
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format).With().Str("cmd", "migrate").Logger()
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeDB(db, log)

	return fn(db, path)
}

func closeDB(db *database.DB, log zerolog.Logger) {
	if err := db.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database")
	}
}
