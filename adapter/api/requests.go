package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var validationMessages = map[string]string{
	"required": "The field '%s' is required.",
	"max":      "The field '%s' must be no longer than %s characters.",
	"oneof":    "The field '%s' must be one of %s.",
}

// RequestError is a client error detected before the command runs.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// taskRequest is the body of POST /tasks and PUT /tasks/{id}. Title and
// due date are decoded loosely so type errors map to domain errors.
type taskRequest struct {
	Title     any     `json:"title"`
	Frequency *string `json:"frequency"`
	Completed *bool   `json:"completed"`
	DueDate   any     `json:"due_date"`
}

// taskInput is the normalized request after type checks.
type taskInput struct {
	Title     string       `json:"title" validate:"required,max=255"`
	Frequency string       `json:"frequency" validate:"omitempty,oneof=daily weekly monthly yearly"`
	Completed bool         `json:"completed"`
	DueDate   task.DueDate `json:"due_date" validate:"-"`
}

func decodeTaskRequest(w http.ResponseWriter, r *http.Request) (taskInput, error) {
	var req taskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return taskInput{}, &RequestError{Message: "Invalid request body"}
	}
	return req.normalize()
}

func (req taskRequest) normalize() (taskInput, error) {
	var in taskInput
	switch title := req.Title.(type) {
	case nil:
	case string:
		in.Title = strings.TrimSpace(title)
	default:
		return taskInput{}, task.ErrTitleNotString
	}
	if req.Frequency != nil {
		in.Frequency = strings.ToLower(strings.TrimSpace(*req.Frequency))
	}
	if req.Completed != nil {
		in.Completed = *req.Completed
	}
	in.DueDate = task.ParseDueDate(req.DueDate)

	if err := validateStruct(in); err != nil {
		return taskInput{}, err
	}
	return in, nil
}

// validateStruct runs the struct tags and returns the first failure as a
// RequestError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return &RequestError{Message: fieldMessage(verrs[0])}
}

func fieldMessage(e validator.FieldError) string {
	msg, ok := validationMessages[e.Tag()]
	if !ok {
		return fmt.Sprintf("The field '%s' is invalid.", e.Field())
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, e.Field(), e.Param())
	}
	return fmt.Sprintf(msg, e.Field())
}
