package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/loadqueue/internal/events"
)

// SchedulerConfig holds configuration for the scheduler
type SchedulerConfig struct {
	// Concurrency is the maximum number of executions in flight at once
	Concurrency int

	// MaxRetries is the retry ceiling. A task is requeued while its retry
	// counter is not greater than MaxRetries, so it may run MaxRetries+2 times.
	MaxRetries int

	// Timeout bounds a single attempt. The timer races the executor and the
	// first to settle decides the outcome.
	Timeout time.Duration

	// CompletionPolicy decides whether dropped tasks count toward completion
	CompletionPolicy CompletionPolicy
}

// DefaultSchedulerConfig returns a SchedulerConfig with the reference values
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Concurrency:      3,
		MaxRetries:       3,
		Timeout:          2500 * time.Millisecond,
		CompletionPolicy: CompletionRequireFinished,
	}
}

// Scheduler runs a fixed set of tasks under a concurrency cap, racing every
// attempt against a timeout and requeueing failed or timed out tasks until
// they exhaust their retries.
type Scheduler struct {
	executor Executor
	config   SchedulerConfig
	logger   *slog.Logger

	mu         sync.Mutex
	emitter    events.EventEmitter
	metrics    Metrics
	onComplete func(Status)
	run        *run
}

// NewScheduler creates a new idle Scheduler
func NewScheduler(executor Executor, config SchedulerConfig, logger *slog.Logger) *Scheduler {
	defaults := DefaultSchedulerConfig()
	if config.Concurrency <= 0 {
		logger.Warn("invalid concurrency specified, using default",
			"specified_concurrency", config.Concurrency,
			"default_concurrency", defaults.Concurrency)
		config.Concurrency = defaults.Concurrency
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.CompletionPolicy == "" {
		config.CompletionPolicy = defaults.CompletionPolicy
	}

	return &Scheduler{
		executor: executor,
		config:   config,
		logger:   logger.With("component", "scheduler"),
		metrics:  NoopMetrics{},
	}
}

// SetEventEmitter sets the emitter that receives one event per settled
// attempt, per dropped task and on completion
func (s *Scheduler) SetEventEmitter(emitter events.EventEmitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitter = emitter
}

// SetMetrics sets the metrics sink. A nil value disables metrics.
func (s *Scheduler) SetMetrics(metrics Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	s.metrics = metrics
}

// SetCompletionHandler sets the function called exactly once when a run
// transitions to completed
func (s *Scheduler) SetCompletionHandler(handler func(Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = handler
}

// Config returns the effective configuration after defaults were applied
func (s *Scheduler) Config() SchedulerConfig {
	return s.config
}

// Start begins a run over the given tasks. Duplicate ids are ignored after
// their first occurrence. It fails with ErrAlreadyRunning unless the
// scheduler is idle.
func (s *Scheduler) Start(ids []TaskID) error {
	if s.executor == nil {
		return ErrNoExecutor
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil {
		return fmt.Errorf("%w: run %s is %s", ErrAlreadyRunning, s.run.id, s.run.State())
	}

	unique := uniqueTaskIDs(ids)
	if len(unique) != len(ids) {
		s.logger.Warn("ignoring duplicate task ids",
			"task_count", len(ids),
			"unique_count", len(unique))
	}

	r := newRun(unique, s.config.Concurrency)
	r.pool = newWorkerPool(context.Background(), r.slots, s.config.Concurrency,
		func(ctx context.Context, id TaskID, workerID int) {
			s.execute(ctx, r, id, workerID)
		},
		s.logger.With("run_id", r.id))
	s.run = r

	s.logger.Info("starting run",
		"run_id", r.id,
		"task_count", len(unique),
		"concurrency", s.config.Concurrency,
		"max_retries", s.config.MaxRetries,
		"timeout", s.config.Timeout)

	r.pool.Start()

	r.mu.Lock()
	r.state = RunStateInProgress
	dispatched := r.dispatchLocked(s.config.Concurrency)
	drained := r.checkDrainedLocked()
	r.mu.Unlock()

	s.metrics.AddActive(context.Background(), int64(dispatched))

	if drained {
		s.logger.Warn("run has no tasks, it will never complete", "run_id", r.id)
		r.finish()
	}
	return nil
}

// Stop cancels the current run. No further tasks are dispatched, in-flight
// attempts are abandoned without being logged and Done is closed. The run
// state is left unchanged.
func (s *Scheduler) Stop() {
	r := s.current()
	if r == nil {
		return
	}
	if r.stop() {
		s.logger.Info("run stopped", "run_id", r.id)
	}
}

// Reset stops the current run, if any, and returns the scheduler to idle
func (s *Scheduler) Reset() {
	s.mu.Lock()
	r := s.run
	s.run = nil
	s.mu.Unlock()

	if r != nil {
		r.stop()
		s.logger.Info("scheduler reset", "run_id", r.id)
	}
}

// Done returns a channel that is closed when the current run drains (no
// pending and no active tasks) or is stopped. For an idle scheduler the
// returned channel is already closed.
func (s *Scheduler) Done() <-chan struct{} {
	r := s.current()
	if r == nil {
		return closedChan
	}
	return r.done
}

// Wait blocks until the current run is done or ctx is cancelled
func (s *Scheduler) Wait(ctx context.Context) error {
	select {
	case <-s.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current run state
func (s *Scheduler) State() RunState {
	r := s.current()
	if r == nil {
		return RunStateIdle
	}
	return r.State()
}

// Progress returns the finished and total task counts
func (s *Scheduler) Progress() Progress {
	return s.Status().Progress()
}

// Status returns a snapshot of the current run
func (s *Scheduler) Status() Status {
	r := s.current()
	if r == nil {
		return Status{State: RunStateIdle}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusLocked()
}

// Log returns a copy of the attempt log in settlement order
func (s *Scheduler) Log() []LogEntry {
	r := s.current()
	if r == nil {
		return []LogEntry{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(r.log))
	copy(out, r.log)
	return out
}

// Retries returns a copy of the retry counters of the current run
func (s *Scheduler) Retries() map[TaskID]int {
	out := make(map[TaskID]int)
	r := s.current()
	if r == nil {
		return out
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.retries {
		out[id] = n
	}
	return out
}

func (s *Scheduler) current() *run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run
}

// hooks returns the observers to notify after a state change
func (s *Scheduler) hooks() (events.EventEmitter, Metrics, func(Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emitter, s.metrics, s.onComplete
}

// attemptResult is the settled value of one executor call
type attemptResult struct {
	value    string
	err      error
	timedOut bool
}

// execute runs one attempt for id in a worker slot and settles it
func (s *Scheduler) execute(ctx context.Context, r *run, id TaskID, workerID int) {
	attempt := r.beginAttempt(id)
	logger := s.logger.With(
		"run_id", r.id,
		"task_id", id,
		"worker_id", workerID,
		"attempt", attempt,
	)
	logger.Debug("executing task")

	execCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so a losing executor never blocks on send
	results := make(chan attemptResult, 1)
	go s.attempt(execCtx, id, results)

	timer := time.NewTimer(s.config.Timeout)
	defer timer.Stop()

	var res attemptResult
	select {
	case res = <-results:
	case <-timer.C:
		res = attemptResult{err: NewLoadError(id, LoadTimedOut), timedOut: true}
	case <-ctx.Done():
		s.abandon(r, logger)
		return
	}

	s.settle(r, id, attempt, res, logger)
}

// attempt calls the executor, converting a panic into a failed result
func (s *Scheduler) attempt(ctx context.Context, id TaskID, results chan<- attemptResult) {
	defer func() {
		if rec := recover(); rec != nil {
			results <- attemptResult{err: fmt.Errorf("%w: %v", ErrExecutorPanicked, rec)}
		}
	}()

	value, err := s.executor.Execute(ctx, id)
	results <- attemptResult{value: value, err: err}
}

// abandon releases the slot of an attempt interrupted by Stop
func (s *Scheduler) abandon(r *run, logger *slog.Logger) {
	r.mu.Lock()
	r.active--
	r.mu.Unlock()

	_, metrics, _ := s.hooks()
	metrics.AddActive(context.Background(), -1)
	logger.Debug("abandoned in-flight attempt")
}

// settlement collects what happened under the run lock so observers can be
// notified after it is released
type settlement struct {
	entry      LogEntry
	retried    bool
	retryCount int
	dropped    bool
	dispatched int
	completed  bool
	drained    bool
	status     Status
	events     []*events.LoadEvent
}

// settle applies the outcome of one attempt: log it, retry or drop failures,
// refill free slots and detect completion
func (s *Scheduler) settle(r *run, id TaskID, attempt int, res attemptResult, logger *slog.Logger) {
	ctx := context.Background()

	r.mu.Lock()
	if r.stopped {
		r.active--
		r.mu.Unlock()
		_, metrics, _ := s.hooks()
		metrics.AddActive(ctx, -1)
		return
	}

	st := settlement{entry: LogEntry{TaskID: id, Attempt: attempt, At: time.Now()}}
	switch {
	case res.timedOut:
		st.entry.Outcome = OutcomeTimedOut
		st.entry.Detail = res.err.Error()
	case res.err != nil:
		st.entry.Outcome = OutcomeFailed
		st.entry.Detail = res.err.Error()
	default:
		st.entry.Outcome = OutcomeSucceeded
		st.entry.Detail = res.value
	}
	r.log = append(r.log, st.entry)
	r.active--

	if st.entry.Outcome == OutcomeSucceeded {
		r.finished++
	} else if r.retries[id] > s.config.MaxRetries {
		r.dropped[id] = struct{}{}
		st.dropped = true
	} else {
		r.retries[id]++
		st.retryCount = r.retries[id]
		r.queue.Push(id)
		st.retried = true
	}

	st.events = append(st.events, r.eventLocked(eventTypeFor(st.entry.Outcome), st.entry))
	if st.dropped {
		st.events = append(st.events, r.eventLocked(events.TypeLoadDropped, st.entry))
	}

	st.dispatched = r.dispatchLocked(s.config.Concurrency)

	checkCompletion := st.entry.Outcome == OutcomeSucceeded ||
		(st.dropped && s.config.CompletionPolicy == CompletionCountDropped)
	if checkCompletion && r.completeLocked(s.config.CompletionPolicy) {
		r.state = RunStateCompleted
		st.completed = true
		completed := events.NewLoadEvent(r.id, events.TypeRunCompleted, "")
		completed.Finished, completed.Total = r.finished, r.total
		st.events = append(st.events, completed)
	}
	st.drained = r.checkDrainedLocked()
	st.status = r.statusLocked()
	r.mu.Unlock()

	s.report(ctx, r, st, res, logger)
}

// report notifies logs, metrics, event handlers and the completion handler
// of a settlement. It runs without holding the run lock.
func (s *Scheduler) report(ctx context.Context, r *run, st settlement, res attemptResult, logger *slog.Logger) {
	emitter, metrics, onComplete := s.hooks()

	switch st.entry.Outcome {
	case OutcomeSucceeded:
		logger.Info("task loaded", "value", res.value)
	case OutcomeTimedOut:
		logger.Warn("task attempt timed out", "timeout", s.config.Timeout)
	default:
		logger.Warn("task attempt failed", "error", res.err)
	}

	metrics.RecordOutcome(ctx, st.entry.Outcome)
	metrics.AddActive(ctx, int64(st.dispatched-1))

	if st.retried {
		logger.Info("task requeued", "retry_count", st.retryCount)
		metrics.RecordRetry(ctx)
	}
	if st.dropped {
		logger.Warn("task dropped",
			"error", fmt.Errorf("%w: %s exceeded %d retries", ErrRetryLimitExceeded, st.entry.TaskID, s.config.MaxRetries))
		metrics.RecordDrop(ctx)
	}

	if emitter != nil {
		for _, event := range st.events {
			if err := emitter.EmitEvent(ctx, event); err != nil {
				logger.Error("failed to emit event", "event_type", event.Type, "error", err)
			}
		}
	}

	if st.completed {
		s.logger.Info("run completed",
			"run_id", r.id,
			"finished", st.status.Finished,
			"total", st.status.Total,
			"dropped", st.status.Dropped)
		if onComplete != nil {
			onComplete(st.status)
		}
	}

	if st.drained {
		if st.status.State != RunStateCompleted {
			s.logger.Warn("run drained without completing",
				"run_id", r.id,
				"finished", st.status.Finished,
				"total", st.status.Total,
				"dropped", st.status.Dropped)
		}
		r.finish()
	}
}

func eventTypeFor(outcome Outcome) string {
	switch outcome {
	case OutcomeSucceeded:
		return events.TypeLoadSucceeded
	case OutcomeTimedOut:
		return events.TypeLoadTimedOut
	default:
		return events.TypeLoadFailed
	}
}

// uniqueTaskIDs returns ids without duplicates, keeping first occurrences in order
func uniqueTaskIDs(ids []TaskID) []TaskID {
	seen := make(map[TaskID]struct{}, len(ids))
	out := make([]TaskID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()
