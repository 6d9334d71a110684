package main

import (
	"fmt"

	"github.com/phrazzld/taskflow-api/internal/platform/migrations"
	"github.com/phrazzld/taskflow-api/internal/platform/sqlstore"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|up-by-one|down|reset|status|version]",
		Short: "Apply or inspect database schema migrations",
		Long: `Run a goose migration command against the configured database.

Examples:
  taskflow migrate up
  taskflow migrate status
  taskflow migrate down`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{migrations.CommandUp, migrations.CommandUpByOne, migrations.CommandDown, migrations.CommandReset, migrations.CommandStatus, migrations.CommandVersion},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := sqlstore.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					log.Error("failed to close database connection", "error", err)
				}
			}()

			return migrations.Run(cmd.Context(), db.DB, cfg.Database.Driver, args[0], log)
		},
	}
}
