package mcp

import (
	"errors"

	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
)

var errNoStorage = errors.New("task storage is not available")

func requireID(id int64) (int64, error) {
	if id <= 0 {
		return 0, task.ErrInvalidID
	}
	return id, nil
}

// dueDateArg maps an optional tool argument to a due date. Unparseable
// values become no due date, like the HTTP API.
func dueDateArg(value string) task.DueDate {
	return task.ParseDueDate(value)
}
