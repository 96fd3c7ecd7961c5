package config

import (
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnvVars clears all tasktrack-related environment variables.
func clearEnvVars() {
	envVars := []string{
		"APP_ENV", "LOG_LEVEL", "LOG_FORMAT", "HTTP_ADDR", "SHUTDOWN_TIMEOUT",
		"DATABASE_DRIVER", "DATABASE_URL", "SQLITE_PATH", "DATABASE_NAME", "DB_MAX_CONNS",
		"REDIS_URL", "CACHE_TTL", "RABBITMQ_URL",
		"OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE", "OUTBOX_MAX_RETRIES",
		"OUTBOX_STATS_INTERVAL", "OUTBOX_RETENTION_DAYS", "OUTBOX_CLEANUP_INTERVAL",
		"OUTBOX_PROCESSOR_ENABLED", "WORKER_HEALTH_ADDR",
		"BREAKER_MAX_FAILURES", "BREAKER_TIMEOUT",
		"MCP_ADDR", "MCP_AUTH_TOKEN",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "0.0.0.0:3000", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, DriverAuto, cfg.DatabaseDriver)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "tasks_db", cfg.DatabaseName)
	assert.Equal(t, 10, cfg.DBMaxConns)

	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.RabbitMQURL)

	assert.Equal(t, time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.Equal(t, 5, cfg.OutboxMaxRetries)
	assert.Equal(t, 14, cfg.OutboxRetentionDays)
	assert.True(t, cfg.OutboxProcessorEnabled)
	assert.Equal(t, "0.0.0.0:8081", cfg.WorkerHealthAddr)

	assert.Equal(t, 5, cfg.BreakerMaxFailures)
	assert.Equal(t, 30*time.Second, cfg.BreakerTimeout)

	assert.Equal(t, "0.0.0.0:8082", cfg.MCPAddr)
	assert.Empty(t, cfg.MCPAuthToken)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_WithCustomEnvVars(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("APP_ENV", "production")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("DATABASE_DRIVER", "MySQL")
	os.Setenv("DATABASE_URL", "root:secret@tcp(localhost:3306)/tasks_db")
	os.Setenv("CACHE_TTL", "30s")
	os.Setenv("OUTBOX_BATCH_SIZE", "200")
	os.Setenv("BREAKER_MAX_FAILURES", "2")
	os.Setenv("BREAKER_TIMEOUT", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverMySQL, cfg.DatabaseDriver)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 200, cfg.OutboxBatchSize)
	assert.Equal(t, 2, cfg.BreakerMaxFailures)
	assert.Equal(t, time.Minute, cfg.BreakerTimeout)
	assert.False(t, cfg.OutboxProcessorEnabled, "production runs the relay in the worker")
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "oracle" }, "DATABASE_DRIVER"},
		{"server driver without url", func(c *Config) { c.DatabaseDriver = DriverPostgres }, "DATABASE_URL"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"zero max conns", func(c *Config) { c.DBMaxConns = 0 }, "DB_MAX_CONNS"},
		{"max conns overflow", func(c *Config) { c.DBMaxConns = math.MaxInt32 + 1 }, "integer overflow"},
		{"negative retries", func(c *Config) { c.OutboxMaxRetries = -1 }, "OUTBOX_MAX_RETRIES"},
		{"zero breaker failures", func(c *Config) { c.BreakerMaxFailures = 0 }, "BREAKER_MAX_FAILURES"},
		{"zero cache ttl", func(c *Config) { c.CacheTTL = 0 }, "CACHE_TTL"},
		{"empty http addr", func(c *Config) { c.HTTPAddr = "" }, "HTTP_ADDR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateReportsAll(t *testing.T) {
	cfg := &Config{DatabaseDriver: "oracle", LogFormat: "xml"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DRIVER")
	assert.Contains(t, err.Error(), "LOG_FORMAT")
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestConfig_Modes(t *testing.T) {
	tests := []struct {
		env         string
		development bool
		production  bool
	}{
		{"development", true, false},
		{"production", false, true},
		{"staging", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := &Config{AppEnv: tt.env}
			assert.Equal(t, tt.development, cfg.IsDevelopment())
			assert.Equal(t, tt.production, cfg.IsProduction())
		})
	}

	assert.True(t, (&Config{DatabaseDriver: DriverMemory}).UsesMemoryStore())
	assert.False(t, (&Config{DatabaseDriver: DriverAuto}).UsesMemoryStore())
}

func TestGetEnv(t *testing.T) {
	// Test default value
	value := getEnv("NON_EXISTENT_VAR", "default")
	assert.Equal(t, "default", value)

	// Test with set value
	os.Setenv("TEST_VAR", "custom")
	defer os.Unsetenv("TEST_VAR")
	value = getEnv("TEST_VAR", "default")
	assert.Equal(t, "custom", value)

	// Test with empty string (should use default)
	os.Setenv("TEST_EMPTY", "")
	defer os.Unsetenv("TEST_EMPTY")
	value = getEnv("TEST_EMPTY", "default")
	assert.Equal(t, "default", value)
}

func TestGetIntEnv(t *testing.T) {
	value := getIntEnv("NON_EXISTENT_INT", 42)
	assert.Equal(t, 42, value)

	os.Setenv("TEST_INT", "100")
	defer os.Unsetenv("TEST_INT")
	assert.Equal(t, 100, getIntEnv("TEST_INT", 42))

	os.Setenv("TEST_INVALID_INT", "not-a-number")
	defer os.Unsetenv("TEST_INVALID_INT")
	assert.Equal(t, 42, getIntEnv("TEST_INVALID_INT", 42))
}

func TestGetDurationEnv(t *testing.T) {
	value := getDurationEnv("NON_EXISTENT_DUR", 5*time.Second)
	assert.Equal(t, 5*time.Second, value)

	os.Setenv("TEST_DUR", "10m")
	defer os.Unsetenv("TEST_DUR")
	assert.Equal(t, 10*time.Minute, getDurationEnv("TEST_DUR", 5*time.Second))

	os.Setenv("TEST_INVALID_DUR", "not-a-duration")
	defer os.Unsetenv("TEST_INVALID_DUR")
	assert.Equal(t, 5*time.Second, getDurationEnv("TEST_INVALID_DUR", 5*time.Second))
}

func TestGetBoolEnv(t *testing.T) {
	assert.True(t, getBoolEnv("NON_EXISTENT_BOOL", true))

	for _, tv := range []string{"true", "1", "True", "TRUE"} {
		os.Setenv("TEST_BOOL", tv)
		assert.True(t, getBoolEnv("TEST_BOOL", false), "Expected true for value: %s", tv)
	}
	for _, fv := range []string{"false", "0", "False", "FALSE"} {
		os.Setenv("TEST_BOOL", fv)
		assert.False(t, getBoolEnv("TEST_BOOL", true), "Expected false for value: %s", fv)
	}
	os.Unsetenv("TEST_BOOL")

	os.Setenv("TEST_INVALID_BOOL", "not-a-bool")
	defer os.Unsetenv("TEST_INVALID_BOOL")
	assert.True(t, getBoolEnv("TEST_INVALID_BOOL", true))
}
