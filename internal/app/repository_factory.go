package app

import (
	"context"
	"fmt"
	"log/slog"

	sharedApplication "github.com/felixgeelhaar/tasktrack/internal/shared/application"
	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/database/mysql"    // Register MySQL driver
	_ "github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/persistence"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/domain/task"
	"github.com/felixgeelhaar/tasktrack/internal/tasks/infrastructure/persistence"
	"github.com/felixgeelhaar/tasktrack/pkg/config"
)

// RepositoryFactory creates the storage-specific pieces for one backend.
// A nil connection selects the in-memory backend.
type RepositoryFactory struct {
	conn database.Connection
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{conn: conn}
}

// Backend names the storage backend for logs and health output.
func (f *RepositoryFactory) Backend() string {
	if f.conn == nil {
		return config.DriverMemory
	}
	return f.conn.Driver().String()
}

// TaskRepository creates the task repository for the backend.
func (f *RepositoryFactory) TaskRepository() task.Repository {
	if f.conn == nil {
		return persistence.NewMemoryTaskRepository()
	}
	return persistence.NewSQLTaskRepository(f.conn)
}

// OutboxRepository creates the outbox repository for the backend.
func (f *RepositoryFactory) OutboxRepository() outbox.Repository {
	if f.conn == nil {
		return outbox.NewMemoryRepository()
	}
	return outbox.NewSQLRepository(f.conn)
}

// UnitOfWork creates the unit of work for the backend.
func (f *RepositoryFactory) UnitOfWork() sharedApplication.UnitOfWork {
	if f.conn == nil {
		return sharedPersistence.NewLockingUnitOfWork()
	}
	return database.NewUnitOfWork(f.conn)
}

// DatabaseConfig maps the application configuration to a connection config.
func DatabaseConfig(cfg *config.Config) database.Config {
	dbCfg := database.Config{
		Driver:         database.Driver(cfg.DatabaseDriver),
		URL:            cfg.DatabaseURL,
		SQLitePath:     cfg.SQLitePath,
		DatabaseName:   cfg.DatabaseName,
		CreateDatabase: true,
		MaxConns:       cfg.DBMaxConns,
	}
	if cfg.DatabaseDriver == config.DriverAuto {
		dbCfg.Driver = database.DetectDriver(cfg.DatabaseURL)
	}
	if dbCfg.Driver == database.DriverSQLite && dbCfg.SQLitePath == "" {
		dbCfg.SQLitePath = database.DefaultSQLitePath()
	}
	return dbCfg
}

// OpenDatabase connects to the configured database. It returns nil for the
// memory backend.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (database.Connection, error) {
	if cfg.UsesMemoryStore() {
		return nil, nil
	}

	dbCfg := DatabaseConfig(cfg)
	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", dbCfg.Driver, err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dbCfg.Driver, err)
	}

	logger.Info("connected to database", "driver", conn.Driver().String(), "database", dbCfg.Name())
	return conn, nil
}

// Migrate applies pending migrations and reconciles the tasks table.
func Migrate(ctx context.Context, conn database.Connection, logger *slog.Logger) ([]int64, error) {
	applied, err := migrations.NewRunner(conn, logger).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return applied, nil
}
