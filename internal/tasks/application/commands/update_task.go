package commands

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/tasktrack/internal/shared/application"
	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
)

// UpdateTaskCommand overwrites every mutable field of a task. Zero values
// stand for omitted fields: daily, not completed, no due date.
type UpdateTaskCommand struct {
	TaskID        int64
	Title         string
	Frequency     string
	Completed     bool
	DueDate       task.DueDate
	CorrelationID string
}

// UpdateTaskHandler handles the UpdateTaskCommand.
type UpdateTaskHandler struct {
	taskRepo   task.Repository
	outboxRepo outbox.Repository
	uow        application.UnitOfWork
}

// NewUpdateTaskHandler creates a new UpdateTaskHandler.
func NewUpdateTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow application.UnitOfWork) *UpdateTaskHandler {
	return &UpdateTaskHandler{
		taskRepo:   taskRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle replaces the task and returns the stored record as read back
// after the write.
func (h *UpdateTaskHandler) Handle(ctx context.Context, cmd UpdateTaskCommand) (*task.Task, error) {
	if err := task.ValidateFields(cmd.Title, cmd.Frequency); err != nil {
		return nil, err
	}

	return application.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*task.Task, error) {
		t, err := h.taskRepo.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return nil, err
		}

		if err := t.Replace(cmd.Title, cmd.Frequency, cmd.Completed, cmd.DueDate); err != nil {
			return nil, err
		}
		if err := h.taskRepo.Update(txCtx, t); err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
		if err := saveEvents(txCtx, h.outboxRepo, t, cmd.CorrelationID); err != nil {
			return nil, fmt.Errorf("failed to save task events: %w", err)
		}

		return h.taskRepo.FindByID(txCtx, cmd.TaskID)
	})
}
