package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// InProcessBus delivers published events synchronously to consumers in
// the same process. It stands in for RabbitMQ when no broker is configured.
type InProcessBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewInProcessBus creates a new in-process bus.
func NewInProcessBus(logger *slog.Logger) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessBus{
		registry: NewConsumerRegistry(logger),
		logger:   logger,
	}
}

// RegisterConsumer registers an event consumer.
func (b *InProcessBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish decodes the envelope and dispatches it. Consumer failures and
// undecodable payloads are logged, never returned, so the outbox marks the
// message as published.
func (b *InProcessBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	event, err := decodeEvent(payload, routingKey)
	if err != nil {
		b.logger.Error("dropping undecodable event", "routing_key", routingKey, "error", err)
		return nil
	}

	start := time.Now()
	if err := b.registry.Dispatch(ctx, event); err != nil {
		b.logger.Error("event dispatch failed",
			"routing_key", routingKey,
			"event_id", event.EventID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil
	}

	b.logger.Debug("event dispatched",
		"routing_key", routingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Close is a no-op.
func (b *InProcessBus) Close() error {
	return nil
}

// LogConsumer writes every task event to the log.
type LogConsumer struct {
	eventTypes []string
	logger     *slog.Logger
}

// NewLogConsumer creates a consumer that logs the given event types.
func NewLogConsumer(logger *slog.Logger, eventTypes ...string) *LogConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogConsumer{eventTypes: eventTypes, logger: logger}
}

// EventTypes returns the routing keys this consumer handles.
func (c *LogConsumer) EventTypes() []string {
	return c.eventTypes
}

// Handle logs the event.
func (c *LogConsumer) Handle(_ context.Context, event *ConsumedEvent) error {
	c.logger.Info("domain event",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"aggregate_id", event.AggregateID,
		"correlation_id", event.Metadata.CorrelationID,
	)
	return nil
}
