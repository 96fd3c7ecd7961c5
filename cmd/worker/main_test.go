package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/tasktrack/pkg/observability"
)

func TestCleanOutbox(t *testing.T) {
	ctx := context.Background()
	repo := outbox.NewMemoryRepository()
	metrics := observability.NewInMemoryMetrics()

	old := time.Now().AddDate(0, 0, -30)
	recent := time.Now()
	require.NoError(t, repo.Save(ctx, &outbox.Message{RoutingKey: "a", CreatedAt: old, PublishedAt: &old}))
	require.NoError(t, repo.Save(ctx, &outbox.Message{RoutingKey: "b", CreatedAt: recent, PublishedAt: &recent}))
	require.NoError(t, repo.Save(ctx, &outbox.Message{RoutingKey: "c", CreatedAt: old}))

	cleanOutbox(ctx, repo, 14, metrics, observability.Discard())

	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricOutboxCleaned))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricOperationTotal, observability.T(observability.OperationKey, "outbox_cleanup")))
	pending, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestLogStats_RecordsPendingGauge(t *testing.T) {
	ctx := context.Background()
	repo := outbox.NewMemoryRepository()
	metrics := observability.NewInMemoryMetrics()
	require.NoError(t, repo.Save(ctx, &outbox.Message{RoutingKey: "a", CreatedAt: time.Now()}))
	require.NoError(t, repo.Save(ctx, &outbox.Message{RoutingKey: "b", CreatedAt: time.Now()}))

	processor := outbox.NewProcessor(repo, eventbus.NewInProcessBus(observability.Discard()), outbox.DefaultProcessorConfig(), observability.Discard())
	logStats(ctx, processor, repo, metrics, observability.Discard())

	assert.Equal(t, float64(2), metrics.GetGauge(observability.MetricOutboxPending))
}

func TestHealthMux(t *testing.T) {
	processor := outbox.NewProcessor(outbox.NewMemoryRepository(), eventbus.NewInProcessBus(observability.Discard()), outbox.DefaultProcessorConfig(), observability.Discard())
	health := observability.NewHealthRegistry()
	mux := healthMux(processor, health)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["running"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	health.Register("database", func(ctx context.Context) observability.HealthCheckResult {
		return observability.HealthCheckResult{Status: observability.HealthStatusUnhealthy, Message: "down"}
	})
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRunEvery_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 10)
	done := make(chan struct{})
	go func() {
		runEvery(ctx, time.Millisecond, func() {
			select {
			case calls <- struct{}{}:
			default:
			}
		})
		close(done)
	}()

	<-calls
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runEvery did not stop")
	}
}
