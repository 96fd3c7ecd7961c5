package task

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tasktrack/adapter/cli"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/queries"
)

var (
	listSearch    string
	listFrequency string
	listJSON      bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List tasks, optionally filtered. --search matches a title substring
ignoring case; --frequency matches exactly. Both filters combine.

Examples:
  tasktrack task list
  tasktrack task list --search milk
  tasktrack task list -f weekly --json`,
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp(cmd.Context())
		if err != nil {
			return err
		}

		tasks, err := app.ListTasksHandler.Handle(cmd.Context(), queries.ListTasksQuery{
			Search:    listSearch,
			Frequency: listFrequency,
		})
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			return printJSON(out, tasks)
		}
		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks found.")
			return nil
		}
		fmt.Fprintf(out, "Tasks (%d):\n", len(tasks))
		for _, t := range tasks {
			printTaskLine(out, t)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "case-insensitive title substring")
	listCmd.Flags().StringVarP(&listFrequency, "frequency", "f", "", "daily, weekly, monthly or yearly")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")
}
