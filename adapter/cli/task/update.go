package task

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tasktrack/adapter/cli"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/commands"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/queries"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
	"github.com/felixgeelhaar/tasktrack/pkg/observability"
)

var (
	updateTitle     string
	updateFrequency string
	updateCompleted bool
	updateDueDate   string
)

var updateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Replace a task",
	Long: `Replace every field of a task. Flags that are left out reset the field:
frequency to daily, completed to false and the due date to none.

Examples:
  tasktrack task update 3 --title "Water plants" --completed
  tasktrack task update 3 --title "Pay rent" -f monthly --due 2024-03-01`,
	Args: cobra.ExactArgs(1),
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
		updated, err := app.UpdateTaskHandler.Handle(ctx, commands.UpdateTaskCommand{
			TaskID:        id,
			Title:         updateTitle,
			Frequency:     updateFrequency,
			Completed:     updateCompleted,
			DueDate:       task.ParseDueDate(updateDueDate),
			CorrelationID: observability.CorrelationIDFromContext(ctx),
		})
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Task updated!")
		printTaskLine(out, queries.ToDTO(updated))
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVarP(&updateTitle, "title", "t", "", "task title (required)")
	updateCmd.Flags().StringVarP(&updateFrequency, "frequency", "f", "", "daily, weekly, monthly or yearly")
	updateCmd.Flags().BoolVar(&updateCompleted, "completed", false, "mark the task completed")
	updateCmd.Flags().StringVar(&updateDueDate, "due", "", "due date")
	_ = updateCmd.MarkFlagRequired("title")
}
