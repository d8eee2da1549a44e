package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/spotrank/internal/adapters/http/api"
	"github.com/okian/spotrank/internal/adapters/http/swagger"
	"github.com/okian/spotrank/internal/bootstrap"
	"github.com/okian/spotrank/internal/config"
	"github.com/okian/spotrank/internal/scheduler"
	"github.com/okian/spotrank/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		// The logger may not be initialized yet.
		os.Stderr.WriteString("spotrank: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env) and set up logging.
	cfg, err := bootstrap.Init(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}

	svc := bootstrap.NewService(cfg, store)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	sched, err := newScheduler(cfg, svc)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sched.Stop(stopCtx); err != nil {
			log.Warn(ctx, "scheduler stop", logger.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// rankingService is what the HTTP layer and the scheduler need from the service.
type rankingService interface {
	api.Dependencies
	api.StatsProvider
	scheduler.Refresher
}

// newHandler builds the API router with the docs mounted next to it.
func newHandler(ctx context.Context, cfg *config.Config, svc rankingService) http.Handler {
	server := api.NewServer(svc, svc,
		api.WithRateLimit(cfg.APIRPS, cfg.APIBurst),
		api.WithAllowedOrigins(cfg.Origins()),
	)
	server.Register(ctx)
	swagger.Register(server.Router())
	return server
}

// newScheduler registers the periodic metric refresh jobs.
func newScheduler(cfg *config.Config, svc scheduler.Refresher) (*scheduler.Scheduler, error) {
	sched := scheduler.New()
	if err := sched.Add(scheduler.SystemMetricsJob(cfg.MetricsSchedule)); err != nil {
		return nil, err
	}
	if err := sched.Add(scheduler.RefreshJob(cfg.MetricsSchedule, svc)); err != nil {
		return nil, err
	}
	return sched, nil
}
