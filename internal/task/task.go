package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskID identifies a single unit of work (a file to load)
type TaskID string

// RunState represents the overall state of a scheduler run
type RunState string

// Possible run state values
const (
	RunStateIdle       RunState = "idle"
	RunStateInProgress RunState = "in_progress"
	RunStateCompleted  RunState = "completed"
)

// Outcome describes how a single execution attempt settled
type Outcome string

// Possible outcome values
const (
	OutcomeSucceeded Outcome = "load_succeeded"
	OutcomeFailed    Outcome = "load_failed"
	OutcomeTimedOut  Outcome = "load_timed_out"
)

// CompletionPolicy decides which tasks count toward the Completed transition
type CompletionPolicy string

const (
	// CompletionRequireFinished completes a run only when every distinct task
	// has succeeded. A run in which any task is dropped stays in progress.
	CompletionRequireFinished CompletionPolicy = "require_finished"

	// CompletionCountDropped completes a run once every distinct task has
	// either succeeded or been dropped after exhausting its retries.
	CompletionCountDropped CompletionPolicy = "count_dropped"
)

// Executor performs the work for a single task.
type Executor interface {
	// Execute runs one attempt for the given task and returns its value on
	// success. It must not retain any scheduler state; retries, timeouts and
	// logging are handled by the caller.
	Execute(ctx context.Context, id TaskID) (string, error)
}

// ExecutorFunc adapts an ordinary function to the Executor interface
type ExecutorFunc func(ctx context.Context, id TaskID) (string, error)

// Execute calls f(ctx, id)
func (f ExecutorFunc) Execute(ctx context.Context, id TaskID) (string, error) {
	return f(ctx, id)
}

// LogEntry is an immutable record of one settled execution attempt
type LogEntry struct {
	TaskID  TaskID    `json:"task_id"`
	Outcome Outcome   `json:"outcome"`
	Detail  string    `json:"detail"`
	Attempt int       `json:"attempt"`
	At      time.Time `json:"at"`
}

// Progress reports how many distinct tasks have finished out of the total
type Progress struct {
	Finished int `json:"finished"`
	Total    int `json:"total"`
}

// Percent returns the rounded completion percentage, 0 when there is no work
func (p Progress) Percent() int {
	total := p.Total
	if total == 0 {
		total = 1
	}
	return int(float64(p.Finished)/float64(total)*100 + 0.5)
}

// Status is a point-in-time snapshot of a scheduler run
type Status struct {
	RunID    uuid.UUID `json:"run_id"`
	State    RunState  `json:"state"`
	Finished int       `json:"finished"`
	Total    int       `json:"total"`
	Dropped  int       `json:"dropped"`
	Active   int       `json:"active"`
	Pending  int       `json:"pending"`
	Percent  int       `json:"percent"`
	Stopped  bool      `json:"stopped"`
	Drained  bool      `json:"drained"`
}

// Progress returns the (finished, total) pair of the snapshot
func (s Status) Progress() Progress {
	return Progress{Finished: s.Finished, Total: s.Total}
}
