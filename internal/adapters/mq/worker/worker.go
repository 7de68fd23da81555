// Package worker runs LOR jobs pulled from the queue against the backend.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/internboard/internal/adapters/mq/queue"
	"github.com/okian/internboard/internal/domain/model"
	"github.com/okian/internboard/pkg/logger"
	"github.com/okian/internboard/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultMaxAttempts  = 3
	defaultBackoff      = 500 * time.Millisecond
	poolShutdownTimeout = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Executor performs the backend side effect of a job.
type Executor interface {
	Execute(ctx context.Context, job model.LORJob) error
}

// Tracker records job state transitions.
type Tracker interface {
	Update(ctx context.Context, job model.LORJob)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	executor Executor
	tracker  Tracker
	name     string

	maxAttempts int
	backoff     time.Duration
	retryable   func(error) bool
	now         func() time.Time

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, exec Executor, tracker Tracker, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		executor:    exec,
		tracker:     tracker,
		name:        "worker",
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		retryable:   func(error) bool { return true },
		now:         time.Now,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "lor job failed",
					logger.String("job_id", job.ID),
					logger.String("intern_id", job.InternID),
					logger.String("action", string(job.Action)),
					logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one job to a final state, retrying with linear backoff.
func (w *InMemoryWorker) process(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := w.now()
	metrics.AddWorkerBusy(1)
	defer metrics.AddWorkerBusy(-1)

	job.Status = model.JobRunning
	var lastErr error

attempts:
	for attempt := 1; ; attempt++ {
		job.Attempts = attempt
		job.UpdatedAt = w.now()
		w.tracker.Update(ctx, job)

		lastErr = w.executor.Execute(ctx, job)
		if lastErr == nil {
			break
		}
		if attempt >= w.maxAttempts || !w.retryable(lastErr) {
			break
		}

		metrics.RecordLORRetry()
		w.logger.Warn(ctx, "lor job attempt failed, retrying",
			logger.String("job_id", job.ID),
			logger.Int("attempt", attempt),
			logger.Error(lastErr))

		timer := time.NewTimer(w.backoff * time.Duration(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			lastErr = errors.Join(lastErr, ctx.Err())
			break attempts
		case <-w.shutdown:
			timer.Stop()
			lastErr = errors.Join(lastErr, ErrStopped)
			break attempts
		}
	}

	if lastErr == nil {
		job.Status = model.JobSucceeded
		job.Error = ""
	} else {
		job.Status = model.JobFailed
		job.Error = lastErr.Error()
		metrics.RecordErrorByComponent("worker", "lor_failed")
	}
	job.UpdatedAt = w.now()
	w.tracker.Update(ctx, job)

	metrics.RecordLORCompleted(string(job.Action), string(job.Status), float64(w.now().Sub(start).Microseconds())/1000)
	w.logger.Debug(ctx, "lor job finished",
		logger.String("job_id", job.ID),
		logger.String("status", string(job.Status)),
		logger.Int("attempts", job.Attempts))

	if lastErr != nil {
		return fmt.Errorf("job %s after %d attempt(s): %w", job.ID, job.Attempts, lastErr)
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. opts apply to every worker.
func NewPool(workerCount int, q Queue, exec Executor, tracker Tracker, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append(append([]Option{}, opts...), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(q, exec, tracker, workerOpts...)
	}
	pool.logger = pool.workers[0].logger

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, then waits for every worker to finish its
// current job or for ctx to expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var errs []error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
