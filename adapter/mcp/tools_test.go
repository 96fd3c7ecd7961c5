package mcp

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/persistence"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/commands"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/queries"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/infrastructure/persistence"
)

func memoryDeps() ToolDependencies {
	repo := persistence.NewMemoryTaskRepository()
	outboxRepo := outbox.NewMemoryRepository()
	uow := sharedPersistence.NewLockingUnitOfWork()
	return ToolDependencies{
		CreateTask: commands.NewCreateTaskHandler(repo, outboxRepo, uow),
		UpdateTask: commands.NewUpdateTaskHandler(repo, outboxRepo, uow),
		DeleteTask: commands.NewDeleteTaskHandler(repo, outboxRepo, uow),
		ListTasks:  queries.NewListTasksHandler(repo),
		GetTask:    queries.NewGetTaskHandler(repo),
	}
}

func TestRegisterTools_ListTools(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Tools: true,
		},
	})

	require.NoError(t, RegisterTools(srv, memoryDeps()))

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)

	names := make(map[any]bool, len(tools))
	for _, tool := range tools {
		names[tool["name"]] = true
	}
	for _, want := range []string{"task.create", "task.list", "task.get", "task.update", "task.delete"} {
		assert.True(t, names[want], "%s should be registered", want)
	}
}

func TestRegisterTools_RequiresServer(t *testing.T) {
	assert.Error(t, RegisterTools(nil, memoryDeps()))
	assert.Error(t, RegisterResources(nil, memoryDeps()))
	assert.Error(t, RegisterPrompts(nil, memoryDeps()))
}

func TestTaskTools_Lifecycle(t *testing.T) {
	ctx := context.Background()
	tools := taskTools{deps: memoryDeps()}

	created, err := tools.create(ctx, taskCreateInput{Title: " Buy milk ", Frequency: "WEEKLY", DueDate: "2024-03-15"})
	require.NoError(t, err)
	require.NotNil(t, created.Task)
	assert.Equal(t, "Task added!", created.Message)
	assert.Equal(t, "Buy milk", created.Task.Title)
	assert.Equal(t, "weekly", created.Task.Frequency)
	require.NotNil(t, created.Task.DueDate)
	assert.Equal(t, "2024-03-15", *created.Task.DueDate)

	got, err := tools.get(ctx, taskIDInput{ID: created.Task.ID})
	require.NoError(t, err)
	assert.Equal(t, *created.Task, *got)

	listed, err := tools.list(ctx, taskListInput{Search: "MILK", Frequency: "weekly"})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	updated, err := tools.update(ctx, taskUpdateInput{ID: created.Task.ID, Title: "Buy oat milk", Completed: true})
	require.NoError(t, err)
	assert.Equal(t, "Task updated!", updated.Message)
	assert.Equal(t, "daily", updated.Task.Frequency)
	assert.True(t, updated.Task.Completed)
	assert.Nil(t, updated.Task.DueDate)

	deleted, err := tools.delete(ctx, taskIDInput{ID: created.Task.ID})
	require.NoError(t, err)
	assert.Equal(t, "Task deleted successfully", deleted.Message)

	_, err = tools.delete(ctx, taskIDInput{ID: created.Task.ID})
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
}

func TestTaskTools_Errors(t *testing.T) {
	ctx := context.Background()
	tools := taskTools{deps: memoryDeps()}

	_, err := tools.create(ctx, taskCreateInput{Title: "  "})
	assert.ErrorIs(t, err, task.ErrEmptyTitle)

	_, err = tools.create(ctx, taskCreateInput{Title: "x", Frequency: "hourly"})
	assert.ErrorIs(t, err, task.ErrInvalidFrequency)

	_, err = tools.get(ctx, taskIDInput{ID: 0})
	assert.ErrorIs(t, err, task.ErrInvalidID)

	_, err = tools.update(ctx, taskUpdateInput{ID: 42, Title: "ghost"})
	assert.ErrorIs(t, err, task.ErrTaskNotFound)

	empty := taskTools{}
	_, err = empty.list(ctx, taskListInput{})
	assert.ErrorIs(t, err, errNoStorage)
}

func TestOpenTasks(t *testing.T) {
	tasks := []queries.TaskDTO{
		{ID: 1, Title: "a", Completed: true},
		{ID: 2, Title: "b"},
	}

	open := openTasks(tasks)

	require.Len(t, open, 1)
	assert.Equal(t, int64(2), open[0].ID)
}

func TestDueDateArg(t *testing.T) {
	assert.True(t, dueDateArg("").IsZero())
	assert.True(t, dueDateArg("garbage").IsZero())
	assert.Equal(t, "2024-01-31", dueDateArg("2024-01-31").String())
}
