package task

import (
	"context"
	"log/slog"
	"sync"
)

// workerPool manages a fixed set of worker goroutines that take dispatched
// tasks from a slot channel. Each worker runs one execution at a time, so the
// number of workers bounds the number of concurrent executions.
type workerPool struct {
	// slots provides the tasks handed out by the scheduler
	slots <-chan TaskID

	// workerCount is the number of concurrent workers to start
	workerCount int

	// process runs a single dispatched task
	process func(ctx context.Context, id TaskID, workerID int)

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// ctx is used for cancellation and shutdown signaling
	ctx context.Context

	// cancel is the function to call to cancel the context
	cancel context.CancelFunc

	logger *slog.Logger
}

// newWorkerPool creates a worker pool reading from slots. Cancelling parent
// stops all workers.
func newWorkerPool(
	parent context.Context,
	slots <-chan TaskID,
	workerCount int,
	process func(ctx context.Context, id TaskID, workerID int),
	logger *slog.Logger,
) *workerPool {
	if workerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", workerCount,
			"default_count", 1)
		workerCount = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &workerPool{
		slots:       slots,
		workerCount: workerCount,
		process:     process,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// Start launches the worker goroutines
func (p *workerPool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Cancel signals all workers to stop. It does not wait, so it is safe to call
// from inside a worker.
func (p *workerPool) Cancel() {
	p.cancel()
}

// Wait blocks until every worker has returned
func (p *workerPool) Wait() {
	p.wg.Wait()
}

// worker processes dispatched tasks until the pool is cancelled
func (p *workerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("stopping worker", "worker_id", id)
			return

		case taskID := <-p.slots:
			p.process(p.ctx, taskID, id)
		}
	}
}
