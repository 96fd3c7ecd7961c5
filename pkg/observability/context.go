package observability

import (
	"context"

	"github.com/google/uuid"
)

// Attribute keys shared by log records and metric tags.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
	OperationKey     = "operation"
	DurationKey      = "duration_ms"
	ErrorKey         = "error"
	StatusKey        = "status"
)

type ctxKey int

const (
	correlationIDCtx ctxKey = iota
	requestIDCtx
)

// WithCorrelationID stores id in ctx, generating one when id is empty.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDCtx, orNewID(id))
}

// WithRequestID stores id in ctx, generating one when id is empty.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDCtx, orNewID(id))
}

func CorrelationIDFromContext(ctx context.Context) string { return stringFrom(ctx, correlationIDCtx) }

func RequestIDFromContext(ctx context.Context) string { return stringFrom(ctx, requestIDCtx) }

// NewRequestContext stores both ids. A missing request id is generated and
// a missing correlation id falls back to the request id, so a request that
// starts a chain of events names that chain.
func NewRequestContext(ctx context.Context, requestID, correlationID string) context.Context {
	requestID = orNewID(requestID)
	if correlationID == "" {
		correlationID = requestID
	}
	return WithCorrelationID(WithRequestID(ctx, requestID), correlationID)
}

func orNewID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func stringFrom(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}
