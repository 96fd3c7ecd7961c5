package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact about an aggregate. Its routing key doubles as the
// event type on the broker.
type DomainEvent interface {
	EventID() uuid.UUID
	AggregateID() string
	AggregateType() string
	RoutingKey() string
	OccurredAt() time.Time
	Metadata() EventMetadata
}

// EventMetadata ties an event to the request that caused it.
type EventMetadata struct {
	CorrelationID string    `json:"correlation_id,omitempty"`
	CausationID   uuid.UUID `json:"causation_id"`
}

// BaseEvent carries the header shared by every event. Concrete events embed
// it next to their payload; its fields are unexported so they stay out of
// the payload JSON.
type BaseEvent struct {
	id       uuid.UUID
	aggID    string
	aggType  string
	key      string
	at       time.Time
	metadata EventMetadata
}

// NewBaseEvent stamps a fresh event id and the current UTC time.
func NewBaseEvent(aggregateID, aggregateType, routingKey string) BaseEvent {
	return BaseEvent{
		id:      uuid.New(),
		aggID:   aggregateID,
		aggType: aggregateType,
		key:     routingKey,
		at:      time.Now().UTC(),
	}
}

func (e BaseEvent) EventID() uuid.UUID      { return e.id }
func (e BaseEvent) AggregateID() string     { return e.aggID }
func (e BaseEvent) AggregateType() string   { return e.aggType }
func (e BaseEvent) RoutingKey() string      { return e.key }
func (e BaseEvent) OccurredAt() time.Time   { return e.at }
func (e BaseEvent) Metadata() EventMetadata { return e.metadata }

func (e *BaseEvent) SetMetadata(m EventMetadata) { e.metadata = m }
