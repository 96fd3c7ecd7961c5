package task

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tasktrack/adapter/cli"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/commands"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/queries"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
	"github.com/felixgeelhaar/tasktrack/pkg/observability"
)

var (
	addFrequency string
	addDueDate   string
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Long: `Add a task. The frequency defaults to daily. A due date that cannot be
read as a date is dropped.

Examples:
  tasktrack task add "Water plants"
  tasktrack task add "Pay rent" -f monthly --due 2024-02-01`,
	Aliases: []string{"create"},
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp(cmd.Context())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		created, err := app.CreateTaskHandler.Handle(ctx, commands.CreateTaskCommand{
			Title:         strings.Join(args, " "),
			Frequency:     addFrequency,
			DueDate:       task.ParseDueDate(addDueDate),
			CorrelationID: observability.CorrelationIDFromContext(ctx),
		})
		if err != nil {
			return fmt.Errorf("failed to add task: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Task added!")
		printTaskLine(out, queries.ToDTO(created))
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addFrequency, "frequency", "f", "", "daily, weekly, monthly or yearly")
	addCmd.Flags().StringVar(&addDueDate, "due", "", "due date (YYYY-MM-DD or another common date form)")
}
