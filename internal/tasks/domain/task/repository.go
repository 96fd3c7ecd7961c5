package task

import "context"

// Repository defines the interface for task persistence.
type Repository interface {
	// Create stores a new task and assigns its id via AssignID.
	Create(ctx context.Context, task *Task) error
	// Update overwrites a stored task. Returns ErrTaskNotFound if absent.
	Update(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, id int64) (*Task, error)
	List(ctx context.Context, filter Filter) ([]*Task, error)
	// Delete removes a task. Returns ErrTaskNotFound if absent.
	Delete(ctx context.Context, id int64) error
}
