package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler errors
var (
	ErrUnknownJob     = errors.New("unknown job")
	ErrDuplicateJob   = errors.New("job already registered")
	ErrJobRunning     = errors.New("job is already running")
	ErrAlreadyStarted = errors.New("scheduler already started")
)

// Config holds configuration for the scheduler.
type Config struct {
	// WorkerCount determines how many jobs may run concurrently.
	WorkerCount int

	// QueueSize is the buffer size of the pending-run queue.
	QueueSize int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		WorkerCount: 2,
		QueueSize:   8,
	}
}

type entry struct {
	job      Job
	interval time.Duration
	inFlight atomic.Bool
}

// Scheduler fires registered jobs on fixed intervals.
type Scheduler struct {
	config Config
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	order   []string
	started bool
	stopped bool
	cancel  context.CancelFunc
	tickers sync.WaitGroup
	queue   *JobQueue
	pool    *WorkerPool
}

// New creates a Scheduler. If logger is nil, a default logger will be used.
func New(cfg Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		config:  cfg,
		logger:  logger.With(slog.String("component", "scheduler")),
		entries: make(map[string]*entry),
	}
}

// Register adds job to run every interval. Jobs must be registered
// before Start.
func (s *Scheduler) Register(job Job, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("job %q: interval must be positive, got %s", job.Name(), interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if _, ok := s.entries[job.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name())
	}
	s.entries[job.Name()] = &entry{job: job, interval: interval}
	s.order = append(s.order, job.Name())
	return nil
}

// Jobs returns the registered job names in registration order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Start launches the worker pool and one ticker per job. Each job is
// queued once immediately and then on every tick.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.queue = NewJobQueue(s.config.QueueSize, s.logger)
	s.pool = NewWorkerPool(s.queue.Channel(), s.config.WorkerCount, s.logger)
	s.pool.OnDone(func(job Job, _ Result, _ error) {
		if e, ok := s.entries[job.Name()]; ok {
			e.inFlight.Store(false)
		}
	})
	s.pool.Start(ctx)

	for _, name := range s.order {
		e := s.entries[name]
		s.tickers.Add(1)
		go s.tick(ctx, e)
	}

	s.logger.Info("scheduler started", "jobs", s.order)
	return nil
}

// Stop halts the tickers and waits for running jobs to finish. Jobs still
// queued are dropped.
// A stopped Scheduler cannot be restarted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	s.tickers.Wait()
	s.queue.Close()
	s.pool.Wait()
	s.logger.Info("scheduler stopped")
}

// RunOnce executes the named job synchronously. It returns ErrJobRunning
// if the job is currently in flight.
func (s *Scheduler) RunOnce(ctx context.Context, name string) (Result, error) {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	if !e.inFlight.CompareAndSwap(false, true) {
		return Result{}, fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	defer e.inFlight.Store(false)

	return execute(ctx, e.job, s.logger)
}

func (s *Scheduler) tick(ctx context.Context, e *entry) {
	defer s.tickers.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	s.trigger(e)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.trigger(e)
		}
	}
}

// trigger queues a run of e unless one is already queued or running.
func (s *Scheduler) trigger(e *entry) {
	if !e.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("skipping tick, previous run still in flight", "job", e.job.Name())
		return
	}
	if err := s.queue.Enqueue(e.job); err != nil {
		e.inFlight.Store(false)
		s.logger.Warn("failed to queue job", "job", e.job.Name(), "error", err)
	}
}
