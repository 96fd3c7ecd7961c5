package persistence

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
)

// BreakerConfig configures the storage circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that trips the breaker.
	MaxFailures uint32

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32
}

// DefaultBreakerConfig returns the default breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures: 5,
		Timeout:     30 * time.Second,
		MaxRequests: 1,
	}
}

// BreakerTaskRepository runs every call of the wrapped repository through a
// circuit breaker. Not-found and validation outcomes are successes as far
// as the breaker is concerned.
type BreakerTaskRepository struct {
	next    task.Repository
	breaker *gobreaker.CircuitBreaker[any]
}

// NewBreakerTaskRepository wraps next with a circuit breaker.
func NewBreakerTaskRepository(next task.Repository, config BreakerConfig, logger *slog.Logger) *BreakerTaskRepository {
	defaults := DefaultBreakerConfig()
	if config.MaxFailures == 0 {
		config.MaxFailures = defaults.MaxFailures
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxRequests == 0 {
		config.MaxRequests = defaults.MaxRequests
	}
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        "task-storage",
		MaxRequests: config.MaxRequests,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &BreakerTaskRepository{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

func isBreakerSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, task.ErrTaskNotFound) ||
		task.IsValidationError(err) ||
		errors.Is(err, context.Canceled)
}

// State returns the current breaker state.
func (r *BreakerTaskRepository) State() gobreaker.State {
	return r.breaker.State()
}

func (r *BreakerTaskRepository) execute(fn func() (any, error)) (any, error) {
	result, err := r.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrStorageUnavailable
	}
	return result, err
}

// Create stores a new task.
func (r *BreakerTaskRepository) Create(ctx context.Context, t *task.Task) error {
	_, err := r.execute(func() (any, error) {
		return nil, r.next.Create(ctx, t)
	})
	return err
}

// Update overwrites a stored task.
func (r *BreakerTaskRepository) Update(ctx context.Context, t *task.Task) error {
	_, err := r.execute(func() (any, error) {
		return nil, r.next.Update(ctx, t)
	})
	return err
}

// FindByID retrieves a task by its ID.
func (r *BreakerTaskRepository) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	result, err := r.execute(func() (any, error) {
		return r.next.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return result.(*task.Task), nil
}

// List returns the tasks matching filter.
func (r *BreakerTaskRepository) List(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	result, err := r.execute(func() (any, error) {
		return r.next.List(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*task.Task), nil
}

// Delete removes a task.
func (r *BreakerTaskRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.execute(func() (any, error) {
		return nil, r.next.Delete(ctx, id)
	})
	return err
}
