package queries

import "github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"

// TaskDTO is the public representation of a task.
type TaskDTO struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Frequency string  `json:"frequency"`
	Completed bool    `json:"completed"`
	DueDate   *string `json:"due_date"`
}

// ToDTO converts a task to its public representation.
func ToDTO(t *task.Task) TaskDTO {
	return TaskDTO{
		ID:        t.ID(),
		Title:     t.Title(),
		Frequency: t.Frequency().String(),
		Completed: t.Completed(),
		DueDate:   t.DueDate().Ptr(),
	}
}

// ToDTOs converts a slice of tasks. The result is never nil.
func ToDTOs(tasks []*task.Task) []TaskDTO {
	dtos := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		dtos = append(dtos, ToDTO(t))
	}
	return dtos
}
