package task

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tasktrack/adapter/cli"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/queries"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:     "show <task-id>",
	Short:   "Show task details",
	Aliases: []string{"get", "view"},
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

		t, err := app.GetTaskHandler.Handle(cmd.Context(), queries.GetTaskQuery{TaskID: id})
		if err != nil {
			return fmt.Errorf("failed to get task: %w", err)
		}

		if showJSON {
			return printJSON(cmd.OutOrStdout(), t)
		}
		printTaskDetails(cmd.OutOrStdout(), *t)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print JSON")
}
