package commands

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/tasktrack/internal/shared/application"
	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
)

// CreateTaskCommand contains the data needed to create a task.
type CreateTaskCommand struct {
	Title     string
	Frequency string
	DueDate   task.DueDate
	// CorrelationID ties emitted events to the originating request.
	CorrelationID string
}

// CreateTaskHandler handles the CreateTaskCommand.
type CreateTaskHandler struct {
	taskRepo   task.Repository
	outboxRepo outbox.Repository
	uow        application.UnitOfWork
}

// NewCreateTaskHandler creates a new CreateTaskHandler.
func NewCreateTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow application.UnitOfWork) *CreateTaskHandler {
	return &CreateTaskHandler{
		taskRepo:   taskRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle validates and stores a new task. Nothing is written when
// validation fails.
func (h *CreateTaskHandler) Handle(ctx context.Context, cmd CreateTaskCommand) (*task.Task, error) {
	t, err := task.NewTask(cmd.Title, cmd.Frequency, cmd.DueDate)
	if err != nil {
		return nil, err
	}

	return application.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*task.Task, error) {
		if err := h.taskRepo.Create(txCtx, t); err != nil {
			return nil, fmt.Errorf("failed to create task: %w", err)
		}
		if err := saveEvents(txCtx, h.outboxRepo, t, cmd.CorrelationID); err != nil {
			return nil, fmt.Errorf("failed to save task events: %w", err)
		}
		return t, nil
	})
}
