// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/okian/internboard/internal/adapters/backend"
	lorqueue "github.com/okian/internboard/internal/adapters/mq/queue"
	workerpool "github.com/okian/internboard/internal/adapters/mq/worker"
	"github.com/okian/internboard/internal/adapters/repository"
	"github.com/okian/internboard/internal/domain/dedupe"
	"github.com/okian/internboard/internal/domain/model"
	"github.com/okian/internboard/internal/domain/roster"
	"github.com/okian/internboard/internal/domain/scoring"
	"github.com/okian/internboard/internal/domain/tier"
	"github.com/okian/internboard/pkg/logger"
	"github.com/okian/internboard/pkg/metrics"
)

// Backend is the subset of the REST client the service needs.
type Backend interface {
	ListInterns(ctx context.Context) ([]model.Intern, error)
	GetIntern(ctx context.Context, id string) (model.Intern, error)
	CreateIntern(ctx context.Context, in model.InternInput) (model.Intern, error)
	UpdateIntern(ctx context.Context, id string, in model.InternInput) (model.Intern, error)
	DeleteIntern(ctx context.Context, id string) error
	Rankings(ctx context.Context) (model.RankingBuckets, error)
	RunLOR(ctx context.Context, id string, action model.LORAction) (backend.LORResult, error)
}

// Service implements the API dependencies for the dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	backend   Backend
	store     repository.Store
	deduper   dedupe.Deduper
	lorQueue  lorqueue.Queue
	pool      *workerpool.Pool
	jobs      *jobRegistry
	view      *roster.View
	validator *formValidator

	classifier *tier.Classifier
	aggregator *scoring.Aggregator

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	dedupeTTL      time.Duration
	rosterTTL      time.Duration
	lorMaxAttempts int
	lorBackoff     time.Duration

	// State
	started   bool
	startedAt time.Time
	now       func() time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBackend sets the backend client.
func WithBackend(b Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithWorkerCount sets the number of LOR workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the LOR queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the idempotency-key cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDedupeTTL sets how long an idempotency key is remembered.
func WithDedupeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.dedupeTTL = ttl
		}
	}
}

// WithRosterTTL sets how long a fetched roster is reused.
func WithRosterTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.rosterTTL = ttl
		}
	}
}

// WithLORRetry sets the attempt budget and linear backoff of LOR jobs.
func WithLORRetry(maxAttempts int, backoff time.Duration) Option {
	return func(s *Service) {
		if maxAttempts > 0 {
			s.lorMaxAttempts = maxAttempts
		}
		if backoff >= 0 {
			s.lorBackoff = backoff
		}
	}
}

// WithClassifier sets the tier classifier.
func WithClassifier(c *tier.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithAggregator sets the sub-score aggregator.
func WithAggregator(a *scoring.Aggregator) Option {
	return func(s *Service) {
		if a != nil {
			s.aggregator = a
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for job timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      1000,
		dedupeSize:     10_000,
		dedupeTTL:      10 * time.Minute,
		rosterTTL:      30 * time.Second,
		lorMaxAttempts: 3,
		lorBackoff:     500 * time.Millisecond,
		classifier:     tier.New(),
		aggregator:     scoring.NewAggregator(),
		validator:      newFormValidator(),
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.view = roster.NewView(s.classifier, s.aggregator)
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.backend == nil {
		return ErrNoBackend
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting dashboard service...")

	s.store = repository.NewSnapshotStore(ctx, repository.WithTTL(s.rosterTTL))
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
		dedupe.WithTTL(s.dedupeTTL),
	)
	s.jobs = newJobRegistry(s.dedupeSize)
	s.lorQueue = lorqueue.NewInMemoryQueue(
		lorqueue.WithCapacity(s.queueSize),
		lorqueue.WithName("lor_queue"),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.lorQueue, &lorExecutor{svc: s}, s.jobs,
		workerpool.WithLogger(s.logger.Named("lor")),
		workerpool.WithMaxAttempts(s.lorMaxAttempts),
		workerpool.WithBackoff(s.lorBackoff),
		workerpool.WithRetryable(retryable),
	)
	s.pool.Start(ctx)

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "dashboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("rosterTTL", s.rosterTTL),
		logger.String("missingPolicy", s.classifier.MissingPolicy().String()),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping dashboard service...")

	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
		}
	}

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "dashboard service stopped")
}

// Classifier returns the tier classifier in use.
func (s *Service) Classifier() *tier.Classifier { return s.classifier }

// running returns an error unless Start has completed.
func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	th := s.classifier.Thresholds()
	stats := map[string]interface{}{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"dedupeSize":     s.dedupeSize,
		"rosterTTLMs":    s.rosterTTL.Milliseconds(),
		"lorMaxAttempts": s.lorMaxAttempts,
		"missingPolicy":  s.classifier.MissingPolicy().String(),
		"thresholds": map[string]float64{
			"excellent": th.Excellent,
			"good":      th.Good,
			"average":   th.Average,
		},
	}

	if s.started {
		queueLen := s.lorQueue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["rosterSize"] = s.store.Count(ctx)
		if at, ok := s.store.FetchedAt(ctx); ok {
			stats["rosterFetchedAt"] = at.UTC().Format(time.RFC3339)
		}
		stats["dedupeKeys"] = s.deduper.Size()
		stats["jobs"] = s.jobs.Counts()
		stats["uptimeSeconds"] = int64(s.now().Sub(s.startedAt).Seconds())

		metrics.UpdateQueue(queueLen, s.queueSize)
	}

	return stats
}

// retryable reports whether a backend failure may succeed on a later attempt.
func retryable(err error) bool {
	switch {
	case errors.Is(err, backend.ErrNotFound),
		errors.Is(err, backend.ErrBadRequest),
		errors.Is(err, backend.ErrUnauthorized),
		errors.Is(err, backend.ErrEmptyID):
		return false
	}
	return true
}
