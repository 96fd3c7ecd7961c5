package persistence

import (
	"context"
	"sync"

	sharedPersistence "github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/persistence"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
)

type memoryRecord struct {
	id        int64
	title     string
	frequency task.Frequency
	completed bool
	dueDate   task.DueDate
}

func recordOf(t *task.Task) memoryRecord {
	return memoryRecord{
		id:        t.ID(),
		title:     t.Title(),
		frequency: t.Frequency(),
		completed: t.Completed(),
		dueDate:   t.DueDate(),
	}
}

func (r memoryRecord) toTask() *task.Task {
	return task.Rehydrate(r.id, r.title, r.frequency, r.completed, r.dueDate)
}

// MemoryTaskRepository keeps tasks in process memory in insertion order.
// Ids come from a counter that is never rewound, so deleted ids are not
// reused. Contents are lost on restart.
type MemoryTaskRepository struct {
	mu      sync.RWMutex
	lastID  int64
	records []memoryRecord
}

// NewMemoryTaskRepository creates an empty repository.
func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{}
}

// Create stores a new task and assigns its id.
func (r *MemoryTaskRepository) Create(ctx context.Context, t *task.Task) error {
	r.mu.Lock()
	r.lastID++
	id := r.lastID
	t.AssignID(id)
	r.records = append(r.records, recordOf(t))
	r.mu.Unlock()

	sharedPersistence.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if i := r.indexOf(id); i >= 0 {
			r.records = append(r.records[:i], r.records[i+1:]...)
		}
	})
	return nil
}

// Update overwrites a stored task.
func (r *MemoryTaskRepository) Update(ctx context.Context, t *task.Task) error {
	r.mu.Lock()
	i := r.indexOf(t.ID())
	if i < 0 {
		r.mu.Unlock()
		return task.ErrTaskNotFound
	}
	previous := r.records[i]
	r.records[i] = recordOf(t)
	r.mu.Unlock()

	sharedPersistence.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if i := r.indexOf(previous.id); i >= 0 {
			r.records[i] = previous
		}
	})
	return nil
}

// FindByID returns a copy of the stored task.
func (r *MemoryTaskRepository) FindByID(_ context.Context, id int64) (*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, task.ErrTaskNotFound
	}
	return r.records[i].toTask(), nil
}

// List returns the tasks matching filter in insertion order.
func (r *MemoryTaskRepository) List(_ context.Context, filter task.Filter) ([]*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]*task.Task, 0, len(r.records))
	for _, rec := range r.records {
		t := rec.toTask()
		if t.Matches(filter) {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// Delete removes a task.
func (r *MemoryTaskRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return task.ErrTaskNotFound
	}
	removed := r.records[i]
	r.records = append(r.records[:i], r.records[i+1:]...)
	r.mu.Unlock()

	sharedPersistence.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.insertOrdered(removed)
	})
	return nil
}

// Count returns the number of stored tasks.
func (r *MemoryTaskRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// indexOf requires r.mu to be held.
func (r *MemoryTaskRepository) indexOf(id int64) int {
	for i, rec := range r.records {
		if rec.id == id {
			return i
		}
	}
	return -1
}

// insertOrdered puts rec back at its id position. Requires r.mu.
func (r *MemoryTaskRepository) insertOrdered(rec memoryRecord) {
	i := len(r.records)
	for j, existing := range r.records {
		if existing.id > rec.id {
			i = j
			break
		}
	}
	r.records = append(r.records, memoryRecord{})
	copy(r.records[i+1:], r.records[i:])
	r.records[i] = rec
}
