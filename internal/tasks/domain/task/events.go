package task

import (
	"strconv"

	"github.com/felixgeelhaar/tasktrack/internal/shared/domain"
)

const (
	AggregateType = "Task"

	RoutingKeyCreated = "tasktrack.task.created"
	RoutingKeyUpdated = "tasktrack.task.updated"
	RoutingKeyDeleted = "tasktrack.task.deleted"
)

// Snapshot is the task state carried by events.
type Snapshot struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Frequency string  `json:"frequency"`
	Completed bool    `json:"completed"`
	DueDate   *string `json:"due_date"`
}

func snapshotOf(t *Task) Snapshot {
	return Snapshot{
		ID:        t.id,
		Title:     t.title,
		Frequency: t.frequency.String(),
		Completed: t.completed,
		DueDate:   t.dueDate.Ptr(),
	}
}

// TaskCreated is emitted when a task is stored for the first time.
type TaskCreated struct {
	domain.BaseEvent
	Task Snapshot `json:"task"`
}

// NewTaskCreated creates a TaskCreated event.
func NewTaskCreated(t *Task) *TaskCreated {
	return &TaskCreated{
		BaseEvent: domain.NewBaseEvent(aggregateID(t.id), AggregateType, RoutingKeyCreated),
		Task:      snapshotOf(t),
	}
}

// TaskUpdated is emitted when a task is overwritten.
type TaskUpdated struct {
	domain.BaseEvent
	Task Snapshot `json:"task"`
}

// NewTaskUpdated creates a TaskUpdated event.
func NewTaskUpdated(t *Task) *TaskUpdated {
	return &TaskUpdated{
		BaseEvent: domain.NewBaseEvent(aggregateID(t.id), AggregateType, RoutingKeyUpdated),
		Task:      snapshotOf(t),
	}
}

// TaskDeleted is emitted when a task is removed.
type TaskDeleted struct {
	domain.BaseEvent
	TaskID int64 `json:"task_id"`
}

// NewTaskDeleted creates a TaskDeleted event.
func NewTaskDeleted(id int64) *TaskDeleted {
	return &TaskDeleted{
		BaseEvent: domain.NewBaseEvent(aggregateID(id), AggregateType, RoutingKeyDeleted),
		TaskID:    id,
	}
}

func aggregateID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Snapshot returns the current state of t.
func (t *Task) Snapshot() Snapshot {
	return snapshotOf(t)
}

// Restore rebuilds a task from a snapshot.
func (s Snapshot) Restore() *Task {
	return Rehydrate(s.ID, s.Title, Frequency(s.Frequency), s.Completed, ParseDueDate(s.DueDate))
}
