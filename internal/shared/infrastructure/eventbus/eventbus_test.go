package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/eventbus"
)

type mockConsumer struct {
	eventTypes []string
	events     []*eventbus.ConsumedEvent
	err        error
}

func (m *mockConsumer) EventTypes() []string {
	return m.eventTypes
}

func (m *mockConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConsumerRegistry_Register(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(testLogger())

	registry.Register(&mockConsumer{eventTypes: []string{"tasktrack.task.created", "tasktrack.task.deleted"}})
	registry.Register(&mockConsumer{eventTypes: []string{"tasktrack.task.created"}})

	assert.Len(t, registry.GetConsumers("tasktrack.task.created"), 2)
	assert.Len(t, registry.GetConsumers("tasktrack.task.deleted"), 1)
	assert.Empty(t, registry.GetConsumers("tasktrack.task.updated"))
	assert.Equal(t, 3, registry.ConsumerCount())
}

func TestConsumerRegistry_DispatchRunsEveryConsumer(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(testLogger())
	failing := &mockConsumer{eventTypes: []string{"tasktrack.task.created"}, err: errors.New("boom")}
	healthy := &mockConsumer{eventTypes: []string{"tasktrack.task.created"}}
	registry.Register(failing)
	registry.Register(healthy)

	err := registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{RoutingKey: "tasktrack.task.created"})

	assert.EqualError(t, err, "boom")
	assert.Len(t, failing.events, 1)
	assert.Len(t, healthy.events, 1)
}

func TestInProcessBus_Publish(t *testing.T) {
	bus := eventbus.NewInProcessBus(testLogger())
	consumer := &mockConsumer{eventTypes: []string{"tasktrack.task.created"}}
	bus.RegisterConsumer(consumer)

	eventID := uuid.New()
	payload, err := json.Marshal(map[string]any{
		"event_id":       eventID,
		"event_type":     "tasktrack.task.created",
		"aggregate_type": "Task",
		"aggregate_id":   "5",
		"occurred_at":    time.Now(),
		"metadata":       map[string]string{"correlation_id": "req-9"},
		"data":           map[string]any{"task": map[string]any{"id": 5}},
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), "tasktrack.task.created", payload))

	require.Len(t, consumer.events, 1)
	got := consumer.events[0]
	assert.Equal(t, eventID, got.EventID)
	assert.Equal(t, "5", got.AggregateID)
	assert.Equal(t, "req-9", got.Metadata.CorrelationID)
	assert.JSONEq(t, `{"task":{"id":5}}`, string(got.Data))
}

func TestInProcessBus_RoutingKeyFallback(t *testing.T) {
	bus := eventbus.NewInProcessBus(testLogger())
	consumer := &mockConsumer{eventTypes: []string{"tasktrack.task.deleted"}}
	bus.RegisterConsumer(consumer)

	require.NoError(t, bus.Publish(context.Background(), "tasktrack.task.deleted", []byte(`{"aggregate_id":"1"}`)))
	assert.Len(t, consumer.events, 1)
}

func TestInProcessBus_SwallowsFailures(t *testing.T) {
	bus := eventbus.NewInProcessBus(testLogger())
	consumer := &mockConsumer{eventTypes: []string{"tasktrack.task.created"}, err: errors.New("consumer error")}
	bus.RegisterConsumer(consumer)

	assert.NoError(t, bus.Publish(context.Background(), "tasktrack.task.created", []byte(`{}`)))
	assert.Len(t, consumer.events, 1)

	assert.NoError(t, bus.Publish(context.Background(), "tasktrack.task.created", []byte("invalid json")))
	assert.Len(t, consumer.events, 1)

	assert.NoError(t, bus.Close())
}

func TestLogConsumer(t *testing.T) {
	consumer := eventbus.NewLogConsumer(testLogger(), "tasktrack.task.created", "tasktrack.task.updated")

	assert.Equal(t, []string{"tasktrack.task.created", "tasktrack.task.updated"}, consumer.EventTypes())
	assert.NoError(t, consumer.Handle(context.Background(), &eventbus.ConsumedEvent{RoutingKey: "tasktrack.task.created"}))
}

func TestConsumerRegistry_DispatchJoinsErrors(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(testLogger())
	first := errors.New("first")
	second := errors.New("second")
	registry.Register(&mockConsumer{eventTypes: []string{"tasktrack.task.updated"}, err: first})
	registry.Register(&mockConsumer{eventTypes: []string{"tasktrack.task.updated"}, err: second})

	err := registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{RoutingKey: "tasktrack.task.updated"})

	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.NoError(t, registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{RoutingKey: "unknown"}))
}
