package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/commands"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/queries"
	"github.com/felixgeelhaar/tasktrack/pkg/observability"
)

type taskCreateInput struct {
	Title     string `json:"title" jsonschema:"required"`
	Frequency string `json:"frequency,omitempty"`
	DueDate   string `json:"due_date,omitempty"`
}

type taskListInput struct {
	Search    string `json:"search,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

type taskIDInput struct {
	ID int64 `json:"id" jsonschema:"required"`
}

type taskUpdateInput struct {
	ID        int64  `json:"id" jsonschema:"required"`
	Title     string `json:"title" jsonschema:"required"`
	Frequency string `json:"frequency,omitempty"`
	Completed bool   `json:"completed,omitempty"`
	DueDate   string `json:"due_date,omitempty"`
}

type taskResult struct {
	Message string           `json:"message"`
	Task    *queries.TaskDTO `json:"task,omitempty"`
}

type taskTools struct {
	deps ToolDependencies
}

func registerTaskTools(srv *mcp.Server, deps ToolDependencies) error {
	tools := taskTools{deps: deps}

	srv.Tool("task.create").
		Description("Create a task. Frequency is daily, weekly, monthly or yearly (default daily).").
		Handler(tools.create)

	srv.Tool("task.list").
		Description("List tasks, optionally filtered by title substring and frequency").
		Handler(tools.list)

	srv.Tool("task.get").
		Description("Get a task by id").
		Handler(tools.get)

	srv.Tool("task.update").
		Description("Replace every field of a task. Omitted fields reset to their defaults.").
		Handler(tools.update)

	srv.Tool("task.delete").
		Description("Delete a task").
		Handler(tools.delete)

	return nil
}

func (t taskTools) create(ctx context.Context, input taskCreateInput) (*taskResult, error) {
	if t.deps.CreateTask == nil {
		return nil, errNoStorage
	}
	created, err := t.deps.CreateTask.Handle(ctx, commands.CreateTaskCommand{
		Title:         input.Title,
		Frequency:     input.Frequency,
		DueDate:       dueDateArg(input.DueDate),
		CorrelationID: observability.CorrelationIDFromContext(ctx),
	})
	if err != nil {
		return nil, err
	}
	dto := queries.ToDTO(created)
	return &taskResult{Message: "Task added!", Task: &dto}, nil
}

func (t taskTools) list(ctx context.Context, input taskListInput) ([]queries.TaskDTO, error) {
	if t.deps.ListTasks == nil {
		return nil, errNoStorage
	}
	return t.deps.ListTasks.Handle(ctx, queries.ListTasksQuery{
		Search:    input.Search,
		Frequency: input.Frequency,
	})
}

func (t taskTools) get(ctx context.Context, input taskIDInput) (*queries.TaskDTO, error) {
	if t.deps.GetTask == nil {
		return nil, errNoStorage
	}
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	return t.deps.GetTask.Handle(ctx, queries.GetTaskQuery{TaskID: id})
}

func (t taskTools) update(ctx context.Context, input taskUpdateInput) (*taskResult, error) {
	if t.deps.UpdateTask == nil {
		return nil, errNoStorage
	}
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	updated, err := t.deps.UpdateTask.Handle(ctx, commands.UpdateTaskCommand{
		TaskID:        id,
		Title:         input.Title,
		Frequency:     input.Frequency,
		Completed:     input.Completed,
		DueDate:       dueDateArg(input.DueDate),
		CorrelationID: observability.CorrelationIDFromContext(ctx),
	})
	if err != nil {
		return nil, err
	}
	dto := queries.ToDTO(updated)
	return &taskResult{Message: "Task updated!", Task: &dto}, nil
}

func (t taskTools) delete(ctx context.Context, input taskIDInput) (*taskResult, error) {
	if t.deps.DeleteTask == nil {
		return nil, errNoStorage
	}
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	if err := t.deps.DeleteTask.Handle(ctx, commands.DeleteTaskCommand{
		TaskID:        id,
		CorrelationID: observability.CorrelationIDFromContext(ctx),
	}); err != nil {
		return nil, err
	}
	return &taskResult{Message: "Task deleted successfully"}, nil
}
