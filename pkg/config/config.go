package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/convert"
)

// Storage drivers accepted by DATABASE_DRIVER.
const (
	DriverAuto     = "auto"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv          string
	LogLevel        string
	LogFormat       string
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Database
	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string
	DatabaseName   string
	DBMaxConns     int

	// Redis
	RedisURL string
	CacheTTL time.Duration

	// RabbitMQ
	RabbitMQURL string

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxStatsInterval    time.Duration
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Worker
	WorkerHealthAddr string

	// Circuit breaker
	BreakerMaxFailures int
	BreakerTimeout     time.Duration

	// MCP
	MCPAddr      string
	MCPAuthToken string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	appEnv := getEnv("APP_ENV", "development")
	defaultFormat := "text"
	if appEnv == "production" {
		defaultFormat = "json"
	}

	cfg := &Config{
		AppEnv:          appEnv,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", defaultFormat)),
		HTTPAddr:        getEnv("HTTP_ADDR", "0.0.0.0:3000"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),

		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", DriverAuto)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SQLitePath:     getEnv("SQLITE_PATH", ""),
		DatabaseName:   getEnv("DATABASE_NAME", "tasks_db"),
		DBMaxConns:     getIntEnv("DB_MAX_CONNS", 10),

		RedisURL: getEnv("REDIS_URL", ""),
		CacheTTL: getDurationEnv("CACHE_TTL", 5*time.Minute),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", time.Second),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxStatsInterval:    getDurationEnv("OUTBOX_STATS_INTERVAL", 30*time.Second),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", appEnv != "production"),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),

		BreakerMaxFailures: getIntEnv("BREAKER_MAX_FAILURES", 5),
		BreakerTimeout:     getDurationEnv("BREAKER_TIMEOUT", 30*time.Second),

		MCPAddr:      getEnv("MCP_ADDR", "0.0.0.0:8082"),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),
	}

	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case DriverAuto, DriverMemory, DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER: unsupported driver %q", c.DatabaseDriver))
	}
	if (c.DatabaseDriver == DriverPostgres || c.DatabaseDriver == DriverMySQL) && c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("DATABASE_URL: required for driver %s", c.DatabaseDriver))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT: must be text or json, got %q", c.LogFormat))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR: must not be empty"))
	}

	positiveInts := []struct {
		name  string
		value int
	}{
		{"DB_MAX_CONNS", c.DBMaxConns},
		{"OUTBOX_BATCH_SIZE", c.OutboxBatchSize},
		{"OUTBOX_RETENTION_DAYS", c.OutboxRetentionDays},
		{"BREAKER_MAX_FAILURES", c.BreakerMaxFailures},
	}
	for _, p := range positiveInts {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive, got %d", p.name, p.value))
		}
	}
	if _, err := convert.IntToInt32(c.DBMaxConns); err != nil {
		errs = append(errs, fmt.Errorf("DB_MAX_CONNS: %w", err))
	}
	if c.OutboxMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("OUTBOX_MAX_RETRIES: must not be negative, got %d", c.OutboxMaxRetries))
	}

	positiveDurations := []struct {
		name  string
		value time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", c.ShutdownTimeout},
		{"CACHE_TTL", c.CacheTTL},
		{"OUTBOX_POLL_INTERVAL", c.OutboxPollInterval},
		{"OUTBOX_STATS_INTERVAL", c.OutboxStatsInterval},
		{"OUTBOX_CLEANUP_INTERVAL", c.OutboxCleanupInterval},
		{"BREAKER_TIMEOUT", c.BreakerTimeout},
	}
	for _, p := range positiveDurations {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive, got %s", p.name, p.value))
		}
	}

	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UsesMemoryStore reports whether tasks are kept in process memory.
func (c *Config) UsesMemoryStore() bool {
	return c.DatabaseDriver == DriverMemory
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
