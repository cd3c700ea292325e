package task

import "context"

// Metrics receives counters from the scheduler.
//
// Implementations must be safe for concurrent use and should not block;
// they are called outside the scheduler lock on every settled attempt.
type Metrics interface {
	// RecordOutcome counts one settled attempt
	RecordOutcome(ctx context.Context, outcome Outcome)

	// RecordRetry counts a task pushed back onto the queue
	RecordRetry(ctx context.Context)

	// RecordDrop counts a task abandoned after exhausting its retries
	RecordDrop(ctx context.Context)

	// AddActive adjusts the number of in-flight executions by delta
	AddActive(ctx context.Context, delta int64)
}

// NoopMetrics discards all metric updates
type NoopMetrics struct{}

func (NoopMetrics) RecordOutcome(context.Context, Outcome) {}
func (NoopMetrics) RecordRetry(context.Context)            {}
func (NoopMetrics) RecordDrop(context.Context)             {}
func (NoopMetrics) AddActive(context.Context, int64)       {}
