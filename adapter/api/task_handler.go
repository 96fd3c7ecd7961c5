package api

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/felixgeelhaar/tasktrack/internal/app"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/commands"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/queries"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
	"github.com/felixgeelhaar/tasktrack/pkg/observability"
)

// TaskBackend bundles the task use cases served over HTTP.
type TaskBackend struct {
	Create *commands.CreateTaskHandler
	Update *commands.UpdateTaskHandler
	Delete *commands.DeleteTaskHandler
	List   *queries.ListTasksHandler
	Get    *queries.GetTaskHandler
}

// BackendFromContainer takes the task handlers from a wired container.
func BackendFromContainer(c *app.Container) *TaskBackend {
	return &TaskBackend{
		Create: c.CreateTaskHandler,
		Update: c.UpdateTaskHandler,
		Delete: c.DeleteTaskHandler,
		List:   c.ListTasksHandler,
		Get:    c.GetTaskHandler,
	}
}

// TaskHandler handles /tasks requests. Until a backend is attached every
// request is answered with 503.
type TaskHandler struct {
	backend      atomic.Pointer[TaskBackend]
	logger       *slog.Logger
	metrics      observability.Metrics
	exposeDetail bool
}

// TaskHandlerConfig holds dependencies for the task handler.
type TaskHandlerConfig struct {
	Logger  *slog.Logger
	Metrics observability.Metrics
	// ExposeErrorDetail adds the underlying error to 500 responses.
	ExposeErrorDetail bool
}

// NewTaskHandler creates a task handler with no backend attached.
func NewTaskHandler(cfg TaskHandlerConfig) *TaskHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	return &TaskHandler{
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		exposeDetail: cfg.ExposeErrorDetail,
	}
}

// Attach makes the backend available to requests.
func (h *TaskHandler) Attach(b *TaskBackend) {
	h.backend.Store(b)
}

// Detach removes the backend; requests get 503 again.
func (h *TaskHandler) Detach() {
	h.backend.Store(nil)
}

func (h *TaskHandler) requireBackend(w http.ResponseWriter) (*TaskBackend, bool) {
	b := h.backend.Load()
	if b == nil {
		writeError(w, http.StatusServiceUnavailable, msgStorageUnavailable)
		return nil, false
	}
	return b, true
}

type messageResponse struct {
	Message string `json:"message"`
}

type taskResponse struct {
	Message string           `json:"message"`
	Task    *queries.TaskDTO `json:"task"`
}

// CreateTask handles POST /tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBackend(w)
	if !ok {
		return
	}

	in, err := decodeTaskRequest(w, r)
	if err != nil {
		h.fail(w, r, err, opCreate)
		return
	}

	t, err := b.Create.Handle(r.Context(), commands.CreateTaskCommand{
		Title:         in.Title,
		Frequency:     in.Frequency,
		DueDate:       in.DueDate,
		CorrelationID: observability.CorrelationIDFromContext(r.Context()),
	})
	if err != nil {
		h.fail(w, r, err, opCreate)
		return
	}

	h.metrics.Counter(observability.MetricTasksCreated, 1)
	dto := queries.ToDTO(t)
	writeJSON(w, http.StatusCreated, taskResponse{Message: "Task added!", Task: &dto})
}

// ListTasks handles GET /tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBackend(w)
	if !ok {
		return
	}

	params := r.URL.Query()
	result, err := b.List.Handle(r.Context(), queries.ListTasksQuery{
		Search:    params.Get("search"),
		Frequency: params.Get("frequency"),
	})
	if err != nil {
		h.fail(w, r, err, opList)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetTask handles GET /tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBackend(w)
	if !ok {
		return
	}

	id, err := task.ParseID(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, opGet)
		return
	}

	result, err := b.Get.Handle(r.Context(), queries.GetTaskQuery{TaskID: id})
	if err != nil {
		h.fail(w, r, err, opGet)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// UpdateTask handles PUT /tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBackend(w)
	if !ok {
		return
	}

	id, err := task.ParseID(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, opUpdate)
		return
	}

	in, err := decodeTaskRequest(w, r)
	if err != nil {
		h.fail(w, r, err, opUpdate)
		return
	}

	t, err := b.Update.Handle(r.Context(), commands.UpdateTaskCommand{
		TaskID:        id,
		Title:         in.Title,
		Frequency:     in.Frequency,
		Completed:     in.Completed,
		DueDate:       in.DueDate,
		CorrelationID: observability.CorrelationIDFromContext(r.Context()),
	})
	if err != nil {
		h.fail(w, r, err, opUpdate)
		return
	}

	h.metrics.Counter(observability.MetricTasksUpdated, 1)
	dto := queries.ToDTO(t)
	writeJSON(w, http.StatusOK, taskResponse{Message: "Task updated!", Task: &dto})
}

// DeleteTask handles DELETE /tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBackend(w)
	if !ok {
		return
	}

	id, err := task.ParseID(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, opDelete)
		return
	}

	err = b.Delete.Handle(r.Context(), commands.DeleteTaskCommand{
		TaskID:        id,
		CorrelationID: observability.CorrelationIDFromContext(r.Context()),
	})
	if err != nil {
		h.fail(w, r, err, opDelete)
		return
	}

	h.metrics.Counter(observability.MetricTasksDeleted, 1)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Task deleted successfully"})
}
