package queries

import (
	"context"

	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
)

// ListTasksQuery filters the task listing. Empty fields do not filter.
type ListTasksQuery struct {
	Search    string
	Frequency string
}

// ListTasksHandler handles the ListTasksQuery.
type ListTasksHandler struct {
	taskRepo task.Repository
}

// NewListTasksHandler creates a new ListTasksHandler.
func NewListTasksHandler(taskRepo task.Repository) *ListTasksHandler {
	return &ListTasksHandler{taskRepo: taskRepo}
}

// Handle executes the ListTasksQuery.
func (h *ListTasksHandler) Handle(ctx context.Context, query ListTasksQuery) ([]TaskDTO, error) {
	tasks, err := h.taskRepo.List(ctx, task.NewFilter(query.Search, query.Frequency))
	if err != nil {
		return nil, err
	}
	return ToDTOs(tasks), nil
}
