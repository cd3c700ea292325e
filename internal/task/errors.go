package task

import (
	"errors"
	"fmt"
)

// Common errors returned by the task package
var (
	// ErrLoadFailed is reported when the executor settles with a failure
	ErrLoadFailed = errors.New("load file failed")

	// ErrLoadTimedOut is reported when the timeout wins the race against the executor
	ErrLoadTimedOut = errors.New("load file timed out")

	// ErrAlreadyRunning is returned by Start when the scheduler is not idle
	ErrAlreadyRunning = errors.New("scheduler is already running")

	// ErrRetryLimitExceeded marks a task that was dropped after exhausting its retries.
	// It is only logged, never returned to callers.
	ErrRetryLimitExceeded = errors.New("retry limit exceeded")

	// ErrNoExecutor is returned by Start when the scheduler has no executor
	ErrNoExecutor = errors.New("scheduler has no executor")

	// ErrExecutorPanicked is reported when the executor panics during an attempt
	ErrExecutorPanicked = errors.New("executor panicked")
)

// LoadErrorKind classifies a failed attempt
type LoadErrorKind string

// Possible load error kinds
const (
	LoadFailed   LoadErrorKind = "LoadFailed"
	LoadTimedOut LoadErrorKind = "LoadTimedOut"
)

// LoadError describes a failed attempt for a single task
type LoadError struct {
	TaskID TaskID
	Kind   LoadErrorKind
}

// NewLoadError creates a LoadError for the given task and kind
func NewLoadError(id TaskID, kind LoadErrorKind) *LoadError {
	return &LoadError{TaskID: id, Kind: kind}
}

// Error implements the error interface
func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s", e.TaskID, e.Unwrap().Error())
}

// Unwrap returns the sentinel matching the error kind, so callers can use errors.Is
func (e *LoadError) Unwrap() error {
	if e.Kind == LoadTimedOut {
		return ErrLoadTimedOut
	}
	return ErrLoadFailed
}
