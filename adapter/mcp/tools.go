// Package mcp exposes the task operations as MCP tools, resources and
// prompts.
package mcp

import (
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/tasktrack/internal/app"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/commands"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/queries"
)

// ToolDependencies provides the task use cases to MCP tools.
type ToolDependencies struct {
	CreateTask *commands.CreateTaskHandler
	UpdateTask *commands.UpdateTaskHandler
	DeleteTask *commands.DeleteTaskHandler
	ListTasks  *queries.ListTasksHandler
	GetTask    *queries.GetTaskHandler
}

// DependenciesFromContainer takes the task handlers from a wired container.
func DependenciesFromContainer(c *app.Container) ToolDependencies {
	return ToolDependencies{
		CreateTask: c.CreateTaskHandler,
		UpdateTask: c.UpdateTaskHandler,
		DeleteTask: c.DeleteTaskHandler,
		ListTasks:  c.ListTasksHandler,
		GetTask:    c.GetTaskHandler,
	}
}

// RegisterTools registers every task tool.
func RegisterTools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	return registerTaskTools(srv, deps)
}
