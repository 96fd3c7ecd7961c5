package observability

import (
	"context"
	"log/slog"
	"time"
)

// TimeOperation runs fn and reports its duration and outcome under
// operation. A nil logger or metrics skips that sink.
func TimeOperation(ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func() error) error {
	_, err := TimeOperationResult(ctx, logger, metrics, operation, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// TimeOperationResult is TimeOperation for work that yields a value.
func TimeOperationResult[T any](ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	recordOperation(ctx, logger, metrics, operation, time.Since(start), err)
	return v, err
}

func recordOperation(ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, elapsed time.Duration, err error) {
	if logger != nil {
		attrs := []any{OperationKey, operation, DurationKey, elapsed.Milliseconds()}
		if err != nil {
			logger.ErrorContext(ctx, "operation failed", append(attrs, ErrorKey, err.Error())...)
		} else {
			logger.InfoContext(ctx, "operation completed", attrs...)
		}
	}

	if metrics == nil {
		return
	}
	tag := T(OperationKey, operation)
	metrics.Timing(MetricOperationDuration, elapsed, tag)
	metrics.Counter(MetricOperationTotal, 1, tag)
	if err != nil {
		metrics.Counter(MetricOperationErrors, 1, tag)
	}
}
