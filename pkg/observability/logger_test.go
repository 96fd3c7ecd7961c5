package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatText, Output: &buf})

		logger.Info("task created", "task_id", 7)

		assert.Contains(t, buf.String(), "task created")
		assert.Contains(t, buf.String(), "task_id=7")
	})

	t.Run("json with service attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{
			Level:          LogLevelInfo,
			Format:         LogFormatJSON,
			Output:         &buf,
			ServiceName:    ServiceName,
			ServiceVersion: "1.2.3",
		})

		logger.Info("task created")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "task created", entry["msg"])
		assert.Equal(t, "tasktrack", entry["service"])
		assert.Equal(t, "1.2.3", entry["version"])
	})

	t.Run("respects level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelWarn, Output: &buf})

		logger.Info("hidden")
		logger.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestLogConfigFor(t *testing.T) {
	tests := []struct {
		name       string
		env        string
		level      string
		format     string
		wantLevel  LogLevel
		wantFormat LogFormat
	}{
		{"development defaults", "development", "", "", LogLevelInfo, LogFormatText},
		{"production defaults", "production", "", "", LogLevelInfo, LogFormatJSON},
		{"overrides", "production", "DEBUG", "Text", LogLevelDebug, LogFormatText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LogConfigFor(tt.env, tt.level, tt.format, "v1")
			assert.Equal(t, tt.wantLevel, cfg.Level)
			assert.Equal(t, tt.wantFormat, cfg.Format)
			assert.Equal(t, "v1", cfg.ServiceVersion)
			assert.Equal(t, ServiceName, cfg.ServiceName)
		})
	}
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected slog.Level
	}{
		{LogLevelDebug, slog.LevelDebug},
		{LogLevelInfo, slog.LevelInfo},
		{LogLevelWarn, slog.LevelWarn},
		{LogLevelError, slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			assert.Equal(t, tt.expected, parseSlogLevel(tt.input))
		})
	}
}

func TestContextIntegration(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf}).With("component", "api")

	ctx := NewRequestContext(context.Background(), "req-456", "corr-123")
	logger.InfoContext(ctx, "request handled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "corr-123", entry[CorrelationIDKey])
	assert.Equal(t, "req-456", entry[RequestIDKey])
	assert.Equal(t, "api", entry["component"])
}

func TestNewRequestContext(t *testing.T) {
	ctx := NewRequestContext(context.Background(), "", "")
	requestID := RequestIDFromContext(ctx)

	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, CorrelationIDFromContext(ctx))

	assert.Empty(t, RequestIDFromContext(context.Background()))
}
