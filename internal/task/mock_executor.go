package task

import (
	"context"
	"sync"
	"time"
)

// MockExecutor is a configurable Executor for testing. By default every
// attempt succeeds immediately with the task id as its value.
type MockExecutor struct {
	// Delay is how long each attempt takes before ExecuteFn is consulted
	Delay time.Duration

	// ExecuteFn decides the outcome of an attempt; attempt is 1-based per task
	ExecuteFn func(ctx context.Context, id TaskID, attempt int) (string, error)

	mu          sync.Mutex
	calls       map[TaskID]int
	order       []TaskID
	inFlight    int
	maxInFlight int
}

// NewMockExecutor creates a MockExecutor with the given delay and outcome function
func NewMockExecutor(delay time.Duration, fn func(ctx context.Context, id TaskID, attempt int) (string, error)) *MockExecutor {
	return &MockExecutor{Delay: delay, ExecuteFn: fn}
}

// Execute records the call and returns the configured outcome
func (m *MockExecutor) Execute(ctx context.Context, id TaskID) (string, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[TaskID]int)
	}
	m.calls[id]++
	attempt := m.calls[id]
	m.order = append(m.order, id)
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, id, attempt)
	}
	return string(id), nil
}

// Calls returns how many attempts were made for id
func (m *MockExecutor) Calls(id TaskID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[id]
}

// TotalCalls returns the number of attempts across all tasks
func (m *MockExecutor) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Order returns the task ids in the order their attempts started
func (m *MockExecutor) Order() []TaskID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TaskID, len(m.order))
	copy(out, m.order)
	return out
}

// MaxInFlight returns the highest number of concurrent attempts observed
func (m *MockExecutor) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// AlwaysFail is an ExecuteFn that fails every attempt
func AlwaysFail(_ context.Context, id TaskID, _ int) (string, error) {
	return "", NewLoadError(id, LoadFailed)
}
