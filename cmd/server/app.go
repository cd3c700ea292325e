package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/phrazzld/loadqueue/internal/config"
	"github.com/phrazzld/loadqueue/internal/events"
	"github.com/phrazzld/loadqueue/internal/platform/telemetry"
	"github.com/phrazzld/loadqueue/internal/task"
	"github.com/phrazzld/loadqueue/internal/worklist"
)

// defaultInitDelay is how long the post-load initialization step takes
const defaultInitDelay = time.Second

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	scheduler *task.Scheduler
	source    worklist.Source

	// Event system
	eventEmitter *events.InMemoryEventEmitter
	progress     *task.ProgressEventHandler

	shutdownTelemetry telemetry.ShutdownFunc

	initDelay   time.Duration
	initialized atomic.Int32
}

// newApplication creates a new application instance with all dependencies
// initialized. Telemetry output goes to metricsOut.
func newApplication(cfg *config.Config, logger *slog.Logger, metricsOut io.Writer) (*application, error) {
	app := &application{
		config:    cfg,
		logger:    logger,
		source:    worklist.FromConfig(cfg.WorkList),
		initDelay: defaultInitDelay,
	}

	metrics, shutdown, err := telemetry.Setup(cfg.Telemetry, metricsOut, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	app.shutdownTelemetry = shutdown

	executor := task.NewSimulatedExecutor(task.ExecutorConfig{
		SuccessRate:     cfg.Executor.SuccessRate,
		MinLatency:      cfg.Executor.MinLatency,
		MaxLatency:      cfg.Executor.MaxLatency,
		FailImmediately: cfg.Executor.FailImmediately,
	})

	app.scheduler = task.NewScheduler(executor, task.SchedulerConfig{
		Concurrency:      cfg.Scheduler.Concurrency,
		MaxRetries:       cfg.Scheduler.MaxRetries,
		Timeout:          cfg.Scheduler.Timeout,
		CompletionPolicy: task.CompletionPolicy(cfg.Scheduler.CompletionPolicy),
	}, logger)
	app.scheduler.SetMetrics(metrics)
	app.scheduler.SetCompletionHandler(app.onRunCompleted)

	// Initialize event emitter and register the progress reporter
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.progress = task.NewProgressEventHandler(logger)
	app.eventEmitter.RegisterHandler(app.progress)
	app.scheduler.SetEventEmitter(app.eventEmitter)

	logger.Info("Application initialized successfully",
		"concurrency", cfg.Scheduler.Concurrency,
		"max_retries", cfg.Scheduler.MaxRetries,
		"timeout", cfg.Scheduler.Timeout,
		"completion_policy", cfg.Scheduler.CompletionPolicy)
	return app, nil
}

// startRun loads the work list and starts a run over it
func (app *application) startRun(ctx context.Context) error {
	ids, err := app.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load work list: %w", err)
	}
	app.logger.Info("work list loaded", "task_count", len(ids))

	if err := app.scheduler.Start(ids); err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// onRunCompleted is the scheduler completion handler
func (app *application) onRunCompleted(st task.Status) {
	app.logger.Info("all files loaded, initializing system",
		"run_id", st.RunID,
		"finished", st.Finished,
		"total", st.Total)
	app.initSystem()
}

// initSystem runs the initialization step that depends on every file
// having been loaded
func (app *application) initSystem() {
	if app.initDelay > 0 {
		time.Sleep(app.initDelay)
	}
	app.initialized.Add(1)
	app.logger.Info("system initialized")
}

// waitForRun blocks until the current run drains or ctx is cancelled, in
// which case the run is stopped.
func (app *application) waitForRun(ctx context.Context) error {
	select {
	case <-app.scheduler.Done():
	case <-ctx.Done():
		app.logger.Info("Shutdown signal received, stopping run")
		app.scheduler.Stop()
	}

	st := app.scheduler.Status()
	app.logger.Info("run finished",
		"state", st.State,
		"finished", st.Finished,
		"total", st.Total,
		"dropped", st.Dropped,
		"percent", st.Percent)

	if st.State != task.RunStateCompleted && !st.Stopped && st.Total > 0 {
		return fmt.Errorf("run ended with %d of %d files loaded", st.Finished, st.Total)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.shutdownTelemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.shutdownTelemetry(ctx); err != nil {
			app.logger.Error("Error shutting down telemetry", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
