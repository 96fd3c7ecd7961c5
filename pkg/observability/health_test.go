package observability

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthRegistry(t *testing.T) {
	ping := func(err error) func(context.Context) error {
		return func(context.Context) error { return err }
	}

	tests := []struct {
		name       string
		database   error
		redis      error
		wantStatus HealthStatus
		wantCode   int
	}{
		{"all healthy", nil, nil, HealthStatusHealthy, http.StatusOK},
		{"cache down degrades", nil, errors.New("refused"), HealthStatusDegraded, http.StatusOK},
		{"database down", errors.New("refused"), nil, HealthStatusUnhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewHealthRegistry()
			registry.Register("database", DatabaseHealthChecker(ping(tt.database)))
			registry.Register("redis", RedisHealthChecker(ping(tt.redis)))

			health := registry.GetOverallHealth(context.Background())
			assert.Equal(t, tt.wantStatus, health.Status)
			assert.Equal(t, tt.wantCode, health.HTTPStatus())
			assert.Len(t, health.Checks, 2)
			assert.False(t, health.Checks["database"].Timestamp.IsZero())
		})
	}
}

func TestHealthRegistry_ChecksAreBounded(t *testing.T) {
	registry := NewHealthRegistry()
	registry.timeout = 10 * time.Millisecond
	registry.Register("rabbitmq", RabbitMQHealthChecker(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	results := registry.Check(context.Background())
	require.Contains(t, results, "rabbitmq")
	assert.Equal(t, HealthStatusDegraded, results["rabbitmq"].Status)
	assert.Contains(t, results["rabbitmq"].Message, "rabbitmq connection failed")
}

func TestPingChecker(t *testing.T) {
	ok := PingChecker("search", HealthStatusDegraded, func(context.Context) error { return nil })(context.Background())
	assert.Equal(t, HealthStatusHealthy, ok.Status)
	assert.Equal(t, "search connection healthy", ok.Message)

	down := PingChecker("search", HealthStatusUnhealthy, func(context.Context) error { return errors.New("refused") })(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, down.Status)
	assert.Equal(t, "search connection failed: refused", down.Message)
}

func TestOverallStatus_Empty(t *testing.T) {
	assert.Equal(t, HealthStatusHealthy, OverallStatus(nil))
}
