package domain

// AggregateRoot is an entity whose changes are announced as domain events.
// Events stay pending until the command that caused them persists them.
type AggregateRoot interface {
	DomainEvents() []DomainEvent
	ClearDomainEvents()
}

// EventRecorder holds the pending events of an aggregate. Aggregates embed
// it, and the zero value is ready to use.
type EventRecorder struct {
	pending []DomainEvent
}

// Record appends e to the pending events.
func (r *EventRecorder) Record(e DomainEvent) { r.pending = append(r.pending, e) }

// DomainEvents returns the pending events in the order they were recorded.
func (r *EventRecorder) DomainEvents() []DomainEvent { return r.pending }

func (r *EventRecorder) ClearDomainEvents() { r.pending = nil }
