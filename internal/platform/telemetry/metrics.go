package telemetry

import (
	"context"
	"fmt"

	"github.com/phrazzld/loadqueue/internal/task"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName identifies the scheduler meter
const InstrumentationName = "github.com/phrazzld/loadqueue/scheduler"

// Metric names
const (
	MetricLoadAttempts = "loadqueue.load.attempts"
	MetricRetries      = "loadqueue.load.retries"
	MetricDrops        = "loadqueue.load.drops"
	MetricActiveSlots  = "loadqueue.slots.active"
)

// Metrics records scheduler activity with OpenTelemetry instruments
type Metrics struct {
	attempts metric.Int64Counter
	retries  metric.Int64Counter
	drops    metric.Int64Counter
	active   metric.Int64UpDownCounter
}

// NewMetrics creates the scheduler instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	attempts, err := meter.Int64Counter(MetricLoadAttempts,
		metric.WithDescription("Settled load attempts by outcome"),
		metric.WithUnit("{attempt}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s counter: %w", MetricLoadAttempts, err)
	}

	retries, err := meter.Int64Counter(MetricRetries,
		metric.WithDescription("Tasks requeued after a failed or timed out attempt"),
		metric.WithUnit("{task}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s counter: %w", MetricRetries, err)
	}

	drops, err := meter.Int64Counter(MetricDrops,
		metric.WithDescription("Tasks given up after exhausting their retries"),
		metric.WithUnit("{task}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s counter: %w", MetricDrops, err)
	}

	active, err := meter.Int64UpDownCounter(MetricActiveSlots,
		metric.WithDescription("Execution slots currently occupied"),
		metric.WithUnit("{slot}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s counter: %w", MetricActiveSlots, err)
	}

	return &Metrics{
		attempts: attempts,
		retries:  retries,
		drops:    drops,
		active:   active,
	}, nil
}

// RecordOutcome counts one settled attempt
func (m *Metrics) RecordOutcome(ctx context.Context, outcome task.Outcome) {
	m.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
}

// RecordRetry counts one requeued task
func (m *Metrics) RecordRetry(ctx context.Context) {
	m.retries.Add(ctx, 1)
}

// RecordDrop counts one dropped task
func (m *Metrics) RecordDrop(ctx context.Context) {
	m.drops.Add(ctx, 1)
}

// AddActive adjusts the number of occupied slots
func (m *Metrics) AddActive(ctx context.Context, delta int64) {
	if delta == 0 {
		return
	}
	m.active.Add(ctx, delta)
}

var _ task.Metrics = (*Metrics)(nil)
