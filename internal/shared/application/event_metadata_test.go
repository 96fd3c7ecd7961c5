package application

import (
	"testing"

	"github.com/felixgeelhaar/tasktrack/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventMetadata(t *testing.T) {
	t.Run("keeps the given correlation ID", func(t *testing.T) {
		metadata := NewEventMetadata("req-1")

		assert.Equal(t, "req-1", metadata.CorrelationID)
		assert.NotEqual(t, uuid.Nil, metadata.CausationID)
	})

	t.Run("generates a correlation ID when empty", func(t *testing.T) {
		metadata1 := NewEventMetadata("")
		metadata2 := NewEventMetadata("")

		assert.NotEmpty(t, metadata1.CorrelationID)
		assert.NotEqual(t, metadata1.CorrelationID, metadata2.CorrelationID)
		assert.NotEqual(t, metadata1.CausationID, metadata2.CausationID)
	})
}

type testEvent struct {
	domain.BaseEvent
}

func TestApplyEventMetadata(t *testing.T) {
	first := &testEvent{BaseEvent: domain.NewBaseEvent("1", "Task", "tasktrack.task.created")}
	second := &testEvent{BaseEvent: domain.NewBaseEvent("1", "Task", "tasktrack.task.updated")}
	events := []domain.DomainEvent{first, second}

	metadata := NewEventMetadata("corr")
	ApplyEventMetadata(events, metadata)

	require.Len(t, events, 2)
	for _, event := range events {
		assert.Equal(t, metadata, event.Metadata())
	}
}

func TestApplyEventMetadata_SkipsValueEvents(t *testing.T) {
	// Value receivers cannot be mutated, so the event keeps empty metadata.
	event := testEvent{BaseEvent: domain.NewBaseEvent("1", "Task", "tasktrack.task.created")}

	ApplyEventMetadata([]domain.DomainEvent{event}, NewEventMetadata("corr"))

	assert.Empty(t, event.Metadata().CorrelationID)
}
