package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// WorkerPool runs queued jobs on a fixed number of goroutines.
type WorkerPool struct {
	queue       <-chan Job
	workerCount int
	wg          sync.WaitGroup
	logger      *slog.Logger

	// done is called after every job run, successful or not.
	done func(job Job, res Result, err error)
}

// NewWorkerPool creates a pool reading from queue.
// A non-positive workerCount defaults to 1.
func NewWorkerPool(queue <-chan Job, workerCount int, logger *slog.Logger) *WorkerPool {
	if workerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", workerCount,
			"default_count", 1)
		workerCount = 1
	}
	return &WorkerPool{
		queue:       queue,
		workerCount: workerCount,
		logger:      logger,
		done:        func(Job, Result, error) {},
	}
}

// OnDone registers a callback invoked after each job run.
func (p *WorkerPool) OnDone(fn func(job Job, res Result, err error)) {
	if fn != nil {
		p.done = fn
	}
}

// Start launches the workers. They exit when the queue is closed and drained.
// Jobs dequeued after ctx is done are reported to OnDone with ctx.Err()
// instead of being run.
func (p *WorkerPool) Start(ctx context.Context) {
	p.logger.Info("starting worker pool", "worker_count", p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)
	for job := range p.queue {
		if err := ctx.Err(); err != nil {
			p.logger.Debug("dropping queued job after shutdown", "job", job.Name(), "worker_id", id)
			p.done(job, Result{}, err)
			continue
		}
		res, err := execute(ctx, job, p.logger.With("worker_id", id))
		p.done(job, res, err)
	}
	p.logger.Debug("job channel closed, stopping worker", "worker_id", id)
}

// execute runs job once, logging its outcome. A panicking job is reported
// as a failure instead of taking down the worker.
func execute(ctx context.Context, job Job, logger *slog.Logger) (res Result, err error) {
	log := logger.With("job", job.Name())
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", "panic", r)
			err = &panicError{value: r}
		}
	}()

	res, err = job.Run(ctx)
	if err != nil {
		log.Error("job failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return res, err
	}

	log.Info("job completed",
		"selected", res.Selected,
		"applied", res.Applied,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("job panicked: %v", e.value)
}
