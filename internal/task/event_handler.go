package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/loadqueue/internal/events"
)

// ProgressEventHandler implements the events.EventHandler interface and
// reports run progress each time a load event arrives.
type ProgressEventHandler struct {
	logger *slog.Logger

	mu       sync.Mutex
	counts   map[string]int
	progress Progress
}

// NewProgressEventHandler creates a new progress reporting event handler
func NewProgressEventHandler(logger *slog.Logger) *ProgressEventHandler {
	return &ProgressEventHandler{
		logger: logger.With("component", "progress_event_handler"),
		counts: make(map[string]int),
	}
}

// HandleEvent records the event and logs the progress it carries.
// Unknown event types are rejected.
func (h *ProgressEventHandler) HandleEvent(_ context.Context, event *events.LoadEvent) error {
	switch event.Type {
	case events.TypeLoadSucceeded, events.TypeLoadFailed, events.TypeLoadTimedOut,
		events.TypeLoadDropped, events.TypeRunCompleted:
	default:
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return fmt.Errorf("unsupported event type %q", event.Type)
	}

	progress := Progress{Finished: event.Finished, Total: event.Total}

	h.mu.Lock()
	h.counts[event.Type]++
	// Events from concurrent workers may arrive out of order
	if progress.Finished >= h.progress.Finished {
		h.progress = progress
	}
	h.mu.Unlock()

	logger := h.logger.With("run_id", event.RunID, "event_id", event.ID)
	switch event.Type {
	case events.TypeLoadSucceeded:
		logger.Info("load progress",
			"task_id", event.TaskID,
			"finished", progress.Finished,
			"total", progress.Total,
			"percent", progress.Percent())
	case events.TypeLoadDropped:
		logger.Warn("task gave up",
			"task_id", event.TaskID,
			"attempt", event.Attempt)
	case events.TypeRunCompleted:
		logger.Info("all files loaded",
			"finished", progress.Finished,
			"total", progress.Total)
	default:
		logger.Debug("load attempt did not succeed",
			"task_id", event.TaskID,
			"event_type", event.Type,
			"attempt", event.Attempt,
			"detail", event.Detail)
	}
	return nil
}

// Count returns how many events of the given type were handled
func (h *ProgressEventHandler) Count(eventType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[eventType]
}

// Progress returns the highest progress reported so far
func (h *ProgressEventHandler) Progress() Progress {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.progress
}

// Ensure ProgressEventHandler implements events.EventHandler
var _ events.EventHandler = (*ProgressEventHandler)(nil)
