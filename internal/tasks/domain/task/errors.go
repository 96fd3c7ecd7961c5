package task

import "errors"

// MaxTitleLength matches the width of the title column.
const MaxTitleLength = 255

var (
	ErrEmptyTitle       = errors.New("title is required")
	ErrTitleNotString   = errors.New("title must be a string")
	ErrTitleTooLong     = errors.New("title must be at most 255 characters")
	ErrInvalidFrequency = errors.New("frequency must be one of daily, weekly, monthly, yearly")
	ErrInvalidID        = errors.New("invalid task id")
	ErrTaskNotFound     = errors.New("task not found")
)

// IsValidationError reports whether err is caused by invalid task input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyTitle) ||
		errors.Is(err, ErrTitleNotString) ||
		errors.Is(err, ErrTitleTooLong) ||
		errors.Is(err, ErrInvalidFrequency) ||
		errors.Is(err, ErrInvalidID)
}
