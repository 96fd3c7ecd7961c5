package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventConsumer reacts to the routing keys it lists.
type EventConsumer interface {
	EventTypes() []string
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// ConsumedEvent is the decoded envelope of a delivery. The envelope's
// event_type field carries the routing key.
type ConsumedEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	RoutingKey    string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Metadata      EventMetadata   `json:"metadata"`
	Data          json.RawMessage `json:"data"`
}

// EventMetadata is the consumer-side view of the trace fields. IDs stay
// strings so a malformed causation id does not reject the delivery.
type EventMetadata struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	CausationID   string `json:"causation_id,omitempty"`
}

// Consumer feeds deliveries to registered EventConsumers. Start blocks
// until ctx ends or the subscription fails.
type Consumer interface {
	Start(ctx context.Context) error
	RegisterConsumer(consumer EventConsumer)
	Close() error
}
