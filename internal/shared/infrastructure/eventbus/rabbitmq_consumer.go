package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultConsumerQueueName is the durable queue used when none is named.
const DefaultConsumerQueueName = "tasktrack.consumer"

// RabbitMQConsumerConfig configures a RabbitMQConsumer.
type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string
	Exchange  string
	// Transient declares an exclusive, auto-deleted queue that lives only as
	// long as the connection.
	Transient bool
	Logger    *slog.Logger
}

// RabbitMQConsumer binds a queue to the task exchange and dispatches every
// delivery through a ConsumerRegistry.
type RabbitMQConsumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	exchange string
	registry *ConsumerRegistry
	logger   *slog.Logger

	bindMu    sync.Mutex
	running   atomic.Bool
	closeOnce sync.Once
	closed    chan struct{}
}

// NewRabbitMQConsumer connects and declares the queue. Bindings are added
// by RegisterConsumer.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Exchange == "" {
		cfg.Exchange = ExchangeName
	}
	if registry == nil {
		registry = NewConsumerRegistry(cfg.Logger)
	}

	queueName := cfg.QueueName
	switch {
	case cfg.Transient:
		queueName = "" // broker-generated
	case queueName == "":
		queueName = DefaultConsumerQueueName
	}

	conn, ch, err := dialExchange(cfg.URL, cfg.Exchange, "tasktrack-consumer")
	if err != nil {
		return nil, err
	}

	durable := !cfg.Transient
	queue, err := ch.QueueDeclare(queueName, durable, cfg.Transient, cfg.Transient, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	cfg.Logger.Info("RabbitMQ consumer connected", "queue", queue.Name, "exchange", cfg.Exchange)

	return &RabbitMQConsumer{
		conn:     conn,
		channel:  ch,
		queue:    queue.Name,
		exchange: cfg.Exchange,
		registry: registry,
		logger:   cfg.Logger,
		closed:   make(chan struct{}),
	}, nil
}

// Queue returns the name of the queue being consumed.
func (c *RabbitMQConsumer) Queue() string {
	return c.queue
}

// RegisterConsumer adds consumer to the registry and binds the queue to
// each of its routing keys.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)

	c.bindMu.Lock()
	defer c.bindMu.Unlock()
	for _, key := range consumer.EventTypes() {
		if err := c.channel.QueueBind(c.queue, key, c.exchange, false, nil); err != nil {
			c.logger.Error("failed to bind queue", "queue", c.queue, "routing_key", key, "error", err)
			continue
		}
		c.logger.Debug("bound queue", "queue", c.queue, "routing_key", key)
	}
}

// Start consumes until ctx is cancelled, Close is called or the broker
// closes the delivery channel. It blocks.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("consumer already running")
	}
	defer c.running.Store(false)

	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	// manual ack, not exclusive
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	c.logger.Info("consuming events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed by broker")
			}
			c.deliver(ctx, d)
		}
	}
}

// deliver dispatches one delivery and settles it. Undecodable bodies are
// dropped. A failed dispatch is requeued once and dropped when it fails
// again on redelivery.
func (c *RabbitMQConsumer) deliver(ctx context.Context, d amqp.Delivery) {
	event, err := decodeEvent(d.Body, d.RoutingKey)
	if err != nil {
		c.logger.Error("dropping undecodable message", "routing_key", d.RoutingKey, "error", err)
		c.settle(d.Ack(false))
		return
	}

	start := time.Now()
	if err := c.registry.Dispatch(ctx, event); err != nil {
		c.logger.Error("event dispatch failed",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
			"redelivered", d.Redelivered,
			"error", err,
		)
		c.settle(d.Nack(false, !d.Redelivered))
		return
	}

	c.logger.Debug("event processed",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	c.settle(d.Ack(false))
}

func (c *RabbitMQConsumer) settle(err error) {
	if err != nil {
		c.logger.Error("failed to settle delivery", "error", err)
	}
}

// Close stops Start and closes the connection. It is safe to call more
// than once.
func (c *RabbitMQConsumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		if cerr := c.channel.Close(); cerr != nil && !errors.Is(cerr, amqp.ErrClosed) {
			c.logger.Warn("error closing channel", "error", cerr)
		}
		if !c.conn.IsClosed() {
			err = c.conn.Close()
		}
		c.logger.Info("RabbitMQ consumer closed")
	})
	return err
}
