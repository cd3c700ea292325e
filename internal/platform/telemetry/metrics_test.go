package telemetry

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/phrazzld/loadqueue/internal/config"
	"github.com/phrazzld/loadqueue/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := NewMetrics(provider.Meter(InstrumentationName))
	require.NoError(t, err)
	return metrics, reader
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok, "metric %s is not an int64 sum", name)
				return sum
			}
		}
	}
	t.Fatalf("metric %s not found", name)
	return metricdata.Sum[int64]{}
}

func TestMetrics_RecordOutcome(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordOutcome(ctx, task.OutcomeSucceeded)
	metrics.RecordOutcome(ctx, task.OutcomeSucceeded)
	metrics.RecordOutcome(ctx, task.OutcomeTimedOut)

	sum := collectSum(t, reader, MetricLoadAttempts)
	assert.True(t, sum.IsMonotonic)

	byOutcome := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		value, ok := dp.Attributes.Value("outcome")
		require.True(t, ok)
		byOutcome[value.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{
		string(task.OutcomeSucceeded): 2,
		string(task.OutcomeTimedOut):  1,
	}, byOutcome)
}

func TestMetrics_RetriesDropsAndActive(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordRetry(ctx)
	metrics.RecordRetry(ctx)
	metrics.RecordDrop(ctx)
	metrics.AddActive(ctx, 3)
	metrics.AddActive(ctx, 0)
	metrics.AddActive(ctx, -2)

	retries := collectSum(t, reader, MetricRetries)
	require.Len(t, retries.DataPoints, 1)
	assert.Equal(t, int64(2), retries.DataPoints[0].Value)

	drops := collectSum(t, reader, MetricDrops)
	require.Len(t, drops.DataPoints, 1)
	assert.Equal(t, int64(1), drops.DataPoints[0].Value)

	active := collectSum(t, reader, MetricActiveSlots)
	assert.False(t, active.IsMonotonic)
	require.Len(t, active.DataPoints, 1)
	assert.Equal(t, int64(1), active.DataPoints[0].Value)
}

func TestMetrics_WithScheduler(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	exec := task.NewMockExecutor(time.Millisecond, nil)
	s := task.NewScheduler(exec, task.SchedulerConfig{Concurrency: 2, MaxRetries: 1, Timeout: time.Second}, logger)
	s.SetMetrics(metrics)

	require.NoError(t, s.Start([]task.TaskID{"1", "2", "3"}))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))

	attempts := collectSum(t, reader, MetricLoadAttempts)
	require.Len(t, attempts.DataPoints, 1)
	assert.Equal(t, int64(3), attempts.DataPoints[0].Value)

	active := collectSum(t, reader, MetricActiveSlots)
	require.Len(t, active.DataPoints, 1)
	assert.Equal(t, int64(0), active.DataPoints[0].Value)
}

func TestSetup(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("disabled", func(t *testing.T) {
		metrics, shutdown, err := Setup(config.TelemetryConfig{Enabled: false}, io.Discard, logger)
		require.NoError(t, err)
		require.NotNil(t, metrics)

		metrics.RecordOutcome(context.Background(), task.OutcomeSucceeded)
		assert.NoError(t, shutdown(context.Background()))
	})

	t.Run("enabled", func(t *testing.T) {
		original := otel.GetMeterProvider()
		defer otel.SetMeterProvider(original)

		var out bytes.Buffer
		metrics, shutdown, err := Setup(config.TelemetryConfig{Enabled: true, Interval: time.Hour}, &out, logger)
		require.NoError(t, err)
		require.NotNil(t, metrics)

		metrics.RecordDrop(context.Background())

		// Shutdown flushes the pending export
		require.NoError(t, shutdown(context.Background()))
		assert.Contains(t, out.String(), MetricDrops)
	})
}
