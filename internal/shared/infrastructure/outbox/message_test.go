package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/tasktrack/internal/shared/domain"
)

type testEvent struct {
	domain.BaseEvent
	Data string `json:"data"`
}

func newTestEvent(aggregateID, data string) *testEvent {
	return &testEvent{
		BaseEvent: domain.NewBaseEvent(aggregateID, "Task", "tasktrack.task.created"),
		Data:      data,
	}
}

func TestNewMessage(t *testing.T) {
	event := newTestEvent("17", "payload data")
	event.SetMetadata(domain.EventMetadata{CorrelationID: "req-1"})

	msg, err := NewMessage(event)
	require.NoError(t, err)

	assert.Equal(t, event.EventID(), msg.EventID)
	assert.Equal(t, "Task", msg.AggregateType)
	assert.Equal(t, "17", msg.AggregateID)
	assert.Equal(t, "tasktrack.task.created", msg.EventType)
	assert.Equal(t, "tasktrack.task.created", msg.RoutingKey)
	assert.Equal(t, event.OccurredAt(), msg.CreatedAt)
	assert.Nil(t, msg.PublishedAt)
	assert.Equal(t, 0, msg.RetryCount)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(msg.Payload, &envelope))
	assert.Equal(t, event.EventID(), envelope.EventID)
	assert.Equal(t, "17", envelope.AggregateID)
	assert.Equal(t, "req-1", envelope.Metadata.CorrelationID)
	assert.JSONEq(t, `{"data":"payload data"}`, string(envelope.Data))

	var metadata domain.EventMetadata
	require.NoError(t, json.Unmarshal(msg.Metadata, &metadata))
	assert.Equal(t, "req-1", metadata.CorrelationID)
}

func TestNewMessages(t *testing.T) {
	msgs, err := NewMessages([]domain.DomainEvent{newTestEvent("1", "a"), newTestEvent("2", "b")})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "2", msgs[1].AggregateID)
}

func TestMessage_State(t *testing.T) {
	now := time.Now()
	msg := &Message{}

	assert.False(t, msg.IsPublished())
	assert.False(t, msg.IsDead())
	assert.True(t, msg.IsDue(now))

	later := now.Add(time.Minute)
	msg.NextRetryAt = &later
	assert.False(t, msg.IsDue(now))
	assert.True(t, msg.IsDue(later))

	msg.PublishedAt = &now
	assert.True(t, msg.IsPublished())
	assert.False(t, msg.Pending())
	assert.False(t, msg.IsDue(later))

	dead := &Message{DeadLetteredAt: &now}
	assert.True(t, dead.IsDead())
	assert.False(t, dead.Pending())
}
