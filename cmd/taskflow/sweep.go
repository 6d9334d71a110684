package main

import (
	"fmt"

	"github.com/phrazzld/taskflow-api/internal/scheduler"
	"github.com/spf13/cobra"
)

const sweepAll = "all"

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep [overdue|upcoming|archive|all]",
		Short: "Run background sweeps once and exit",
		Long: `Run one or all sweeps synchronously against the configured database.
Sweeps are idempotent, so running one alongside a server is safe.

Examples:
  taskflow sweep overdue
  taskflow sweep all`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{scheduler.JobOverdue, scheduler.JobUpcoming, scheduler.JobArchive, sweepAll},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := newApplication(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer app.cleanup()

			names := []string{args[0]}
			if args[0] == sweepAll {
				names = app.scheduler.Jobs()
			}

			for _, name := range names {
				res, err := app.scheduler.RunOnce(cmd.Context(), name)
				if err != nil {
					return fmt.Errorf("sweep %s failed: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, res)
			}
			return nil
		},
	}
}
