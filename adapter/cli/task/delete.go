package task

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tasktrack/adapter/cli"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/commands"
	"github.com/felixgeelhaar/tasktrack/pkg/observability"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <task-id>",
	Short:   "Delete a task",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		app, err := cli.GetApp(cmd.Context())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := app.DeleteTaskHandler.Handle(ctx, commands.DeleteTaskCommand{
			TaskID:        id,
			CorrelationID: observability.CorrelationIDFromContext(ctx),
		}); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Task deleted successfully")
		return nil
	},
}
