package task

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/queries"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
)

func parseID(arg string) (int64, error) {
	id, err := task.ParseID(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid task ID %q: must be a positive integer", arg)
	}
	return id, nil
}

func statusIcon(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

func printTaskLine(out io.Writer, t queries.TaskDTO) {
	fmt.Fprintf(out, "%s #%d %s (%s)", statusIcon(t.Completed), t.ID, t.Title, t.Frequency)
	if t.DueDate != nil {
		fmt.Fprintf(out, " due %s", *t.DueDate)
	}
	fmt.Fprintln(out)
}

func printTaskDetails(out io.Writer, t queries.TaskDTO) {
	fmt.Fprintf(out, "Task #%d\n", t.ID)
	fmt.Fprintf(out, "  Title:     %s\n", t.Title)
	fmt.Fprintf(out, "  Frequency: %s\n", t.Frequency)
	fmt.Fprintf(out, "  Completed: %t\n", t.Completed)
	if t.DueDate != nil {
		fmt.Fprintf(out, "  Due:       %s\n", *t.DueDate)
	} else {
		fmt.Fprintln(out, "  Due:       -")
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
