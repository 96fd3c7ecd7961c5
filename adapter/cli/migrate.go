package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	internalApp "github.com/felixgeelhaar/tasktrack/internal/app"
	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/migrations"
)

var showStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Create the database if needed, apply pending migrations in order and
reconcile legacy tasks tables. Running it again is a no-op.

Examples:
  tasktrack migrate
  tasktrack migrate --status`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := Config()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if c.UsesMemoryStore() {
			fmt.Fprintln(out, "memory backend has no schema to migrate")
			return nil
		}

		ctx := cmd.Context()
		conn, err := internalApp.OpenDatabase(ctx, c, Logger())
		if err != nil {
			return err
		}
		defer conn.Close()

		runner := migrations.NewRunner(conn, Logger())
		if showStatus {
			statuses, err := runner.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to read migration status: %w", err)
			}
			printStatus(out, statuses)
			return nil
		}

		applied, err := runner.Run(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		if len(applied) == 0 {
			fmt.Fprintln(out, "schema is up to date")
		}
		for _, v := range applied {
			fmt.Fprintf(out, "applied %06d\n", v)
		}
		return nil
	},
}

func printStatus(out io.Writer, statuses []migrations.Status) {
	for _, s := range statuses {
		mark := "[ ]"
		when := "pending"
		if s.Applied {
			mark = "[x]"
			when = s.AppliedAt
		}
		fmt.Fprintf(out, "%s %06d %-30s %s\n", mark, s.Version, s.Name, when)
	}
}

func init() {
	migrateCmd.Flags().BoolVar(&showStatus, "status", false, "print applied and pending migrations without applying")
	rootCmd.AddCommand(migrateCmd)
}
