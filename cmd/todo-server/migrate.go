package main

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"todo/internal/server/config"
	"todo/internal/server/storage/postgres"
	"todo/internal/server/storage/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations for the configured storage",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		return err
	}

	var results []*goose.MigrationResult
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		results, err = postgres.Migrate(cmd.Context(), cfg.Storage.PostgresDSN)
	case config.StorageSQLite:
		var db *sql.DB
		db, err = sql.Open("sqlite", cfg.Storage.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		defer db.Close()
		results, err = sqlite.Migrate(cmd.Context(), db)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "storage %q has no migrations\n", cfg.Storage.Driver)
		return nil
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "no migrations to apply")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(out, "applied %s (%s)\n", r.Source.Path, r.Duration)
	}
	return nil
}
