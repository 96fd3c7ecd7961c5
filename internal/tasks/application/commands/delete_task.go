package commands

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/tasktrack/internal/shared/application"
	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
)

// DeleteTaskCommand removes a task.
type DeleteTaskCommand struct {
	TaskID        int64
	CorrelationID string
}

// DeleteTaskHandler handles the DeleteTaskCommand.
type DeleteTaskHandler struct {
	taskRepo   task.Repository
	outboxRepo outbox.Repository
	uow        application.UnitOfWork
}

// NewDeleteTaskHandler creates a new DeleteTaskHandler.
func NewDeleteTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow application.UnitOfWork) *DeleteTaskHandler {
	return &DeleteTaskHandler{
		taskRepo:   taskRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the DeleteTaskCommand. Deleting a missing task returns
// task.ErrTaskNotFound.
func (h *DeleteTaskHandler) Handle(ctx context.Context, cmd DeleteTaskCommand) error {
	return application.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		t, err := h.taskRepo.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return err
		}

		t.MarkDeleted()
		if err := h.taskRepo.Delete(txCtx, t.ID()); err != nil {
			return err
		}
		if err := saveEvents(txCtx, h.outboxRepo, t, cmd.CorrelationID); err != nil {
			return fmt.Errorf("failed to save task events: %w", err)
		}
		return nil
	})
}
