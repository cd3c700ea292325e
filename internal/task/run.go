package task

import (
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/loadqueue/internal/events"
)

// run holds the state of one scheduler run. All fields below mu are guarded
// by it; the slot channel has capacity equal to the concurrency, and at most
// that many tasks are ever dispatched, so sending on it never blocks.
type run struct {
	id    uuid.UUID
	slots chan TaskID
	pool  *workerPool

	done       chan struct{}
	finishOnce sync.Once

	mu       sync.Mutex
	state    RunState
	queue    *pendingQueue
	retries  map[TaskID]int
	attempts map[TaskID]int
	dropped  map[TaskID]struct{}
	log      []LogEntry
	total    int
	active   int
	finished int
	stopped  bool
	drained  bool
}

func newRun(ids []TaskID, concurrency int) *run {
	return &run{
		id:       uuid.New(),
		slots:    make(chan TaskID, concurrency),
		done:     make(chan struct{}),
		state:    RunStateIdle,
		queue:    newPendingQueue(ids),
		retries:  make(map[TaskID]int, len(ids)),
		attempts: make(map[TaskID]int, len(ids)),
		dropped:  make(map[TaskID]struct{}),
		log:      make([]LogEntry, 0, len(ids)),
		total:    len(ids),
	}
}

// State returns the run state
func (r *run) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// beginAttempt records a new attempt for id and returns its 1-based number
func (r *run) beginAttempt(id TaskID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[id]++
	return r.attempts[id]
}

// dispatchLocked moves tasks from the head of the queue into free slots and
// returns how many were dispatched
func (r *run) dispatchLocked(concurrency int) int {
	if r.stopped {
		return 0
	}

	n := 0
	for r.active < concurrency {
		id, ok := r.queue.Pop()
		if !ok {
			break
		}
		r.active++
		r.slots <- id
		n++
	}
	return n
}

// completeLocked reports whether the run satisfies the completion predicate
func (r *run) completeLocked(policy CompletionPolicy) bool {
	if r.state != RunStateInProgress || r.total == 0 {
		return false
	}
	if r.active != 0 || r.queue.Len() != 0 {
		return false
	}
	if policy == CompletionCountDropped {
		return r.finished+len(r.dropped) == r.total
	}
	return r.finished == r.total
}

// checkDrainedLocked marks the run drained the first time nothing is pending
// or active, and reports whether this call did so
func (r *run) checkDrainedLocked() bool {
	if r.drained || r.stopped {
		return false
	}
	if r.active != 0 || r.queue.Len() != 0 {
		return false
	}
	r.drained = true
	return true
}

// eventLocked builds an event for a settled attempt
func (r *run) eventLocked(eventType string, entry LogEntry) *events.LoadEvent {
	event := events.NewLoadEvent(r.id, eventType, string(entry.TaskID))
	event.Attempt = entry.Attempt
	event.Detail = entry.Detail
	event.Finished = r.finished
	event.Total = r.total
	return event
}

func (r *run) statusLocked() Status {
	st := Status{
		RunID:    r.id,
		State:    r.state,
		Finished: r.finished,
		Total:    r.total,
		Dropped:  len(r.dropped),
		Active:   r.active,
		Pending:  r.queue.Len(),
		Stopped:  r.stopped,
		Drained:  r.drained,
	}
	st.Percent = st.Progress().Percent()
	return st
}

// stop marks the run stopped and releases its workers. It reports false if
// the run had already stopped or drained.
func (r *run) stop() bool {
	r.mu.Lock()
	if r.stopped || r.drained {
		r.mu.Unlock()
		return false
	}
	r.stopped = true
	r.mu.Unlock()

	r.finish()
	return true
}

// finish cancels the worker pool and closes done, once
func (r *run) finish() {
	r.finishOnce.Do(func() {
		r.pool.Cancel()
		close(r.done)
	})
}
