package task

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// ExecutorConfig holds configuration for the simulated executor
type ExecutorConfig struct {
	// SuccessRate is the probability in [0,1] that an attempt succeeds
	SuccessRate float64

	// MinLatency and MaxLatency bound the simulated duration of an attempt
	MinLatency time.Duration
	MaxLatency time.Duration

	// FailImmediately makes failing attempts return without waiting for the
	// simulated latency
	FailImmediately bool
}

// DefaultExecutorConfig returns an ExecutorConfig with the reference values
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		SuccessRate: 0.9,
		MinLatency:  1 * time.Second,
		MaxLatency:  3 * time.Second,
	}
}

// SimulatedExecutor emulates loading a file: every attempt takes a random
// amount of time and fails with probability 1-SuccessRate. Attempts are
// independent, so retrying a task is a fresh trial.
type SimulatedExecutor struct {
	config ExecutorConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedExecutor creates a SimulatedExecutor seeded from the clock
func NewSimulatedExecutor(config ExecutorConfig) *SimulatedExecutor {
	return NewSimulatedExecutorWithRand(config, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSimulatedExecutorWithRand creates a SimulatedExecutor using the given random source
func NewSimulatedExecutorWithRand(config ExecutorConfig, rng *rand.Rand) *SimulatedExecutor {
	if config.SuccessRate < 0 {
		config.SuccessRate = 0
	}
	if config.SuccessRate > 1 {
		config.SuccessRate = 1
	}
	if config.MinLatency < 0 {
		config.MinLatency = 0
	}
	if config.MaxLatency < config.MinLatency {
		config.MaxLatency = config.MinLatency
	}

	return &SimulatedExecutor{
		config: config,
		rng:    rng,
	}
}

// Execute simulates one load attempt for the given task
func (e *SimulatedExecutor) Execute(ctx context.Context, id TaskID) (string, error) {
	ok, latency := e.draw()

	if !ok && e.config.FailImmediately {
		return "", NewLoadError(id, LoadFailed)
	}

	timer := time.NewTimer(latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}

	if !ok {
		return "", NewLoadError(id, LoadFailed)
	}
	return string(id), nil
}

// draw picks the outcome and latency of one attempt
func (e *SimulatedExecutor) draw() (bool, time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ok := e.rng.Float64() < e.config.SuccessRate

	latency := e.config.MinLatency
	if spread := e.config.MaxLatency - e.config.MinLatency; spread > 0 {
		latency += time.Duration(e.rng.Int63n(int64(spread) + 1))
	}
	return ok, latency
}
