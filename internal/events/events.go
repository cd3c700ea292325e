package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event type values emitted by the scheduler
const (
	TypeLoadSucceeded = "load_succeeded"
	TypeLoadFailed    = "load_failed"
	TypeLoadTimedOut  = "load_timed_out"
	TypeLoadDropped   = "load_dropped"
	TypeRunCompleted  = "run_completed"
)

// LoadEvent reports a change in a scheduler run: a settled load attempt,
// a dropped task, or the completion of the run.
type LoadEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// RunID identifies the scheduler run the event belongs to
	RunID uuid.UUID `json:"run_id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// TaskID is the task the event is about, empty for run-level events
	TaskID string `json:"task_id,omitempty"`

	// Attempt is the 1-based attempt number for task events
	Attempt int `json:"attempt,omitempty"`

	// Detail carries the loaded value or the failure description
	Detail string `json:"detail,omitempty"`

	// Finished and Total describe run progress at the time of the event
	Finished int `json:"finished"`
	Total    int `json:"total"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewLoadEvent creates a new LoadEvent with a fresh ID and timestamp
func NewLoadEvent(runID uuid.UUID, eventType, taskID string) *LoadEvent {
	return &LoadEvent{
		ID:        uuid.New(),
		RunID:     runID,
		Type:      eventType,
		TaskID:    taskID,
		CreatedAt: time.Now(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *LoadEvent) error
}

// HandlerFunc adapts an ordinary function to the EventHandler interface
type HandlerFunc func(ctx context.Context, event *LoadEvent) error

// HandleEvent calls f(ctx, event)
func (f HandlerFunc) HandleEvent(ctx context.Context, event *LoadEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows the scheduler to publish events without knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *LoadEvent) error
}
