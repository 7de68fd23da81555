package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/internboard/internal/adapters/backend"
	"github.com/okian/internboard/internal/adapters/http/api"
	"github.com/okian/internboard/internal/adapters/http/swagger"
	app "github.com/okian/internboard/internal/app"
	"github.com/okian/internboard/internal/config"
	"github.com/okian/internboard/internal/domain/scoring"
	"github.com/okian/internboard/internal/domain/tier"
	"github.com/okian/internboard/pkg/logger"
	"github.com/okian/internboard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 15 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithOptions(logger.Options{Format: cfg.LogFormat}); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, loggerInstance); err != nil {
		loggerInstance.Error(ctx, "internboard stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// run wires the service and serves HTTP until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, l logger.Logger) error {
	svc, err := newService(cfg, l)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, l),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		l.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("backend", cfg.BackendURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("%w: %w", api.ErrServe, err)
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	l.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	l.Info(ctx, "server stopped")
	return nil
}

// newClassifier builds the tier classifier from configuration.
func newClassifier(cfg *config.Config) *tier.Classifier {
	policy, _ := tier.ParseMissingPolicy(cfg.TierMissingPolicy)
	return tier.New(
		tier.WithMissingPolicy(policy),
		tier.WithZeroAsMissing(cfg.TierZeroIsMissing),
		tier.WithThresholds(tier.Thresholds{
			Excellent: cfg.TierThresholds.Excellent,
			Good:      cfg.TierThresholds.Good,
			Average:   cfg.TierThresholds.Average,
		}),
	)
}

// newService builds the backend client and the dashboard service.
func newService(cfg *config.Config, l logger.Logger) (*app.Service, error) {
	client, err := backend.New(cfg.BackendURL,
		backend.WithTimeout(cfg.BackendTimeout()),
		backend.WithToken(cfg.BackendToken),
		backend.WithCredentials(cfg.BackendEmail, cfg.BackendPassword),
		backend.WithLogger(l.Named("backend")),
	)
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}

	return app.New(
		app.WithBackend(client),
		app.WithLogger(l.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.LORQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithDedupeTTL(cfg.DedupeTTL),
		app.WithRosterTTL(cfg.RosterTTL()),
		app.WithLORRetry(cfg.LORMaxAttempts, cfg.LORRetryBackoff()),
		app.WithClassifier(newClassifier(cfg)),
		app.WithAggregator(scoring.NewAggregator(scoring.WithWeightsFromConfig(cfg.SubScoreWeights))),
	), nil
}

// newHandler registers the API and docs routes and wraps them with the
// request context and gzip middleware.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, l logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Register API docs under /api-docs and /openapi.yaml
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc,
		api.WithMaxRankingLimit(cfg.MaxRankingLimit),
		api.WithLogger(l.Named("http")),
	)
	apiServer.Register(ctx, mux)

	return api.Handler(mux)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes queue and worker gauges from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var avgPauseMs float64
	if m.NumGC > 0 {
		avgPauseMs = float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
	}
	metrics.UpdateSystem(m.Alloc, runtime.NumGoroutine(), avgPauseMs)
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *app.Service) {
	// GetStats refreshes the queue gauges itself.
	stats := svc.GetStats()

	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
	if rosterSize, ok := stats["rosterSize"].(int); ok {
		metrics.UpdateRosterSize(rosterSize)
	}
}
