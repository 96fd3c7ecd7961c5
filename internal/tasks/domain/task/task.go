package task

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/felixgeelhaar/tasktrack/internal/shared/domain"
)

// Task is a to-do item with a recurrence frequency.
type Task struct {
	domain.EventRecorder
	id        int64
	title     string
	frequency Frequency
	completed bool
	dueDate   DueDate
}

// NewTask creates an unsaved task. Storage assigns the id on insert.
func NewTask(title string, frequency string, dueDate DueDate) (*Task, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}
	freq, err := ParseFrequency(frequency)
	if err != nil {
		return nil, err
	}

	return &Task{
		title:     title,
		frequency: freq,
		dueDate:   dueDate,
	}, nil
}

// Rehydrate rebuilds a stored task without recording events.
func Rehydrate(id int64, title string, frequency Frequency, completed bool, dueDate DueDate) *Task {
	return &Task{
		id:        id,
		title:     title,
		frequency: frequency,
		completed: completed,
		dueDate:   dueDate,
	}
}

// ValidateFields checks title and frequency without building a task.
func ValidateFields(title, frequency string) error {
	if _, err := normalizeTitle(title); err != nil {
		return err
	}
	_, err := ParseFrequency(frequency)
	return err
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func (t *Task) ID() int64            { return t.id }
func (t *Task) Title() string        { return t.title }
func (t *Task) Frequency() Frequency { return t.frequency }
func (t *Task) Completed() bool      { return t.completed }
func (t *Task) DueDate() DueDate     { return t.dueDate }
func (t *Task) IsNew() bool          { return t.id == 0 }

// AssignID records the storage-assigned id and the creation event.
// It panics if the task already has an id.
func (t *Task) AssignID(id int64) {
	if t.id != 0 {
		panic("task: id already assigned")
	}
	t.id = id
	t.Record(NewTaskCreated(t))
}

// Replace overwrites every mutable field. Omitted values in the request
// map to the defaults here: daily, not completed, no due date.
func (t *Task) Replace(title string, frequency string, completed bool, dueDate DueDate) error {
	title, err := normalizeTitle(title)
	if err != nil {
		return err
	}
	freq, err := ParseFrequency(frequency)
	if err != nil {
		return err
	}

	t.title = title
	t.frequency = freq
	t.completed = completed
	t.dueDate = dueDate
	t.Record(NewTaskUpdated(t))
	return nil
}

// MarkDeleted records the deletion event.
func (t *Task) MarkDeleted() {
	t.Record(NewTaskDeleted(t.id))
}

// Matches reports whether the task passes the filter.
func (t *Task) Matches(filter Filter) bool {
	if filter.Search != "" && !strings.Contains(strings.ToLower(t.title), strings.ToLower(filter.Search)) {
		return false
	}
	if filter.Frequency != "" && t.frequency != filter.Frequency {
		return false
	}
	return true
}

// ParseID parses a positive base-10 task id.
func ParseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, ErrInvalidID
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
