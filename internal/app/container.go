package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	sharedApplication "github.com/felixgeelhaar/tasktrack/internal/shared/application"
	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/commands"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/application/queries"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/infrastructure/persistence"
	"github.com/felixgeelhaar/tasktrack/pkg/config"
	"github.com/felixgeelhaar/tasktrack/pkg/observability"
)

// TaskRoutingKeys lists every routing key emitted by the task aggregate.
var TaskRoutingKeys = []string{task.RoutingKeyCreated, task.RoutingKeyUpdated, task.RoutingKeyDeleted}

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Storage; DBConn is nil for the memory backend.
	Backend     string
	DBConn      database.Connection
	RedisClient *redis.Client

	// Repositories
	TaskRepo   task.Repository
	Breaker    *persistence.BreakerTaskRepository
	OutboxRepo outbox.Repository
	UnitOfWork sharedApplication.UnitOfWork

	// Publishers
	EventPublisher eventbus.Publisher
	EventBus       *eventbus.InProcessBus

	// Task Command Handlers
	CreateTaskHandler *commands.CreateTaskHandler
	UpdateTaskHandler *commands.UpdateTaskHandler
	DeleteTaskHandler *commands.DeleteTaskHandler

	// Task Query Handlers
	ListTasksHandler *queries.ListTasksHandler
	GetTaskHandler   *queries.GetTaskHandler

	// Outbox Processor, set when the relay runs in this process.
	OutboxProcessor *outbox.Processor
}

// NewContainer creates and wires all dependencies. The database is
// migrated before the container is returned.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	conn, err := OpenDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.DBConn = conn

	if conn != nil {
		err := observability.TimeOperation(ctx, logger, c.Metrics, "migrate", func() error {
			_, err := Migrate(ctx, conn, logger)
			return err
		})
		if err != nil {
			c.Close()
			return nil, err
		}
	}

	factory := NewRepositoryFactory(conn)
	c.Backend = factory.Backend()
	c.OutboxRepo = factory.OutboxRepository()
	c.UnitOfWork = factory.UnitOfWork()

	taskRepo := factory.TaskRepository()
	if conn != nil {
		c.Breaker = persistence.NewBreakerTaskRepository(taskRepo, persistence.BreakerConfig{
			MaxFailures: uint32(cfg.BreakerMaxFailures),
			Timeout:     cfg.BreakerTimeout,
		}, logger)
		taskRepo = c.Breaker
		c.Health.Register("database", observability.DatabaseHealthChecker(conn.Ping))
	} else {
		c.Health.Register("database", observability.DatabaseHealthChecker(func(context.Context) error { return nil }))
	}

	// Connect to Redis (optional outside production)
	if cfg.RedisURL != "" {
		client, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			if cfg.IsProduction() {
				c.Close()
				return nil, err
			}
			logger.Warn("Redis not available, task cache disabled", "error", err)
		} else {
			c.RedisClient = client
			taskRepo = persistence.NewCachedTaskRepository(taskRepo, client, cfg.CacheTTL, logger)
			c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			}))
			logger.Info("connected to Redis")
		}
	}
	c.TaskRepo = taskRepo

	if err := c.initPublisher(); err != nil {
		c.Close()
		return nil, err
	}

	c.CreateTaskHandler = commands.NewCreateTaskHandler(c.TaskRepo, c.OutboxRepo, c.UnitOfWork)
	c.UpdateTaskHandler = commands.NewUpdateTaskHandler(c.TaskRepo, c.OutboxRepo, c.UnitOfWork)
	c.DeleteTaskHandler = commands.NewDeleteTaskHandler(c.TaskRepo, c.OutboxRepo, c.UnitOfWork)
	c.ListTasksHandler = queries.NewListTasksHandler(c.TaskRepo)
	c.GetTaskHandler = queries.NewGetTaskHandler(c.TaskRepo)

	logger.Info("storage attached", "backend", c.Backend)
	return c, nil
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// initPublisher connects to RabbitMQ when configured and otherwise falls
// back to the in-process bus.
func (c *Container) initPublisher() error {
	if c.Config.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
		if err == nil {
			c.EventPublisher = publisher
			c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(publisher.Ping))
			return nil
		}
		if c.Config.IsProduction() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, using in-process event bus", "error", err)
	}

	c.EventBus = eventbus.NewInProcessBus(c.Logger)
	c.EventBus.RegisterConsumer(eventbus.NewLogConsumer(c.Logger, TaskRoutingKeys...))
	c.EventPublisher = c.EventBus
	return nil
}

// ProcessorConfig builds the outbox relay configuration.
func (c *Container) ProcessorConfig() outbox.ProcessorConfig {
	pc := outbox.DefaultProcessorConfig()
	pc.PollInterval = c.Config.OutboxPollInterval
	pc.BatchSize = c.Config.OutboxBatchSize
	pc.MaxRetries = c.Config.OutboxMaxRetries
	pc.Metrics = c.Metrics
	return pc
}

// StartOutboxProcessor runs the outbox relay in this process until ctx is
// cancelled or Close is called.
func (c *Container) StartOutboxProcessor(ctx context.Context) error {
	if c.OutboxProcessor == nil {
		c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, c.ProcessorConfig(), c.Logger.With("component", "outbox"))
	}
	return c.OutboxProcessor.Start(ctx)
}

// Close releases every resource in reverse order of acquisition.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBConn.Driver().String())
		}
	}
}
