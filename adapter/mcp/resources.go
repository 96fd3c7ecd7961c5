package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/queries"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
)

// RegisterResources registers read-only task resources.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Resource("tasktrack://tasks").
		Name("Tasks").
		Description("Every task").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			tasks, err := listResource(ctx, deps, queries.ListTasksQuery{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, tasks)
		})

	srv.Resource("tasktrack://tasks/open").
		Name("Open Tasks").
		Description("Tasks that are not completed").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			tasks, err := listResource(ctx, deps, queries.ListTasksQuery{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, openTasks(tasks))
		})

	for _, freq := range task.Frequencies() {
		srv.Resource("tasktrack://tasks/" + freq.String()).
			Name(fmt.Sprintf("Tasks (%s)", freq)).
			Description(fmt.Sprintf("Tasks that recur %s", freq)).
			MimeType("application/json").
			Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
				tasks, err := listResource(ctx, deps, queries.ListTasksQuery{Frequency: freq.String()})
				if err != nil {
					return nil, err
				}
				return jsonResource(uri, tasks)
			})
	}

	return nil
}

func listResource(ctx context.Context, deps ToolDependencies, query queries.ListTasksQuery) ([]queries.TaskDTO, error) {
	if deps.ListTasks == nil {
		return nil, errNoStorage
	}
	return deps.ListTasks.Handle(ctx, query)
}

func openTasks(tasks []queries.TaskDTO) []queries.TaskDTO {
	open := make([]queries.TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed {
			open = append(open, t)
		}
	}
	return open
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
