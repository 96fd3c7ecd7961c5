package api

import (
	"errors"
	"net/http"

	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/infrastructure/persistence"
)

type operation string

const (
	opCreate operation = "create"
	opList   operation = "list"
	opGet    operation = "get"
	opUpdate operation = "update"
	opDelete operation = "delete"
)

const (
	msgInvalidID          = "Invalid task id"
	msgNotFound           = "Task not found"
	msgStorageUnavailable = "Storage unavailable"
)

// internalMessages are the 500 messages per operation.
var internalMessages = map[operation]string{
	opCreate: "Error adding task",
	opList:   "Error fetching tasks",
	opGet:    "Error fetching task",
	opUpdate: "Error updating task",
	opDelete: "Error deleting task",
}

// StatusFor maps an error from the task use cases to an HTTP status.
func StatusFor(err error) int {
	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr), task.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, task.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, persistence.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *TaskHandler) fail(w http.ResponseWriter, r *http.Request, err error, op operation) {
	status := StatusFor(err)
	switch status {
	case http.StatusBadRequest:
		if errors.Is(err, task.ErrInvalidID) {
			writeError(w, status, msgInvalidID)
			return
		}
		writeError(w, status, err.Error())
	case http.StatusNotFound:
		writeError(w, status, msgNotFound)
	case http.StatusServiceUnavailable:
		h.logger.WarnContext(r.Context(), "storage unavailable", "operation", string(op), "error", err)
		writeError(w, status, msgStorageUnavailable)
	default:
		h.logger.ErrorContext(r.Context(), "failed to "+string(op)+" task", "error", err)
		body := errorBody{
			Error:   http.StatusText(status),
			Message: internalMessages[op],
		}
		if h.exposeDetail {
			body.Detail = err.Error()
		}
		writeJSON(w, status, body)
	}
}
