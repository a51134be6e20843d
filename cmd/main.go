package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/torque/internal/adapters/audit"
	"github.com/okian/torque/internal/adapters/http/api"
	"github.com/okian/torque/internal/adapters/provider"
	"github.com/okian/torque/internal/adapters/store"
	app "github.com/okian/torque/internal/app"
	"github.com/okian/torque/internal/config"
	"github.com/okian/torque/pkg/logger"
	"github.com/okian/torque/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input).
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithCacheTTL(time.Duration(cfg.CacheTTLHours) * time.Hour),
		app.WithProviderTimeout(time.Duration(cfg.ProviderTimeoutMS) * time.Millisecond),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.RebuildQueueSize),
		app.WithInFlightSize(cfg.InFlightSize),
		app.WithActorID(cfg.ActorID),
	}

	// Durable store and audit log share a single SQLite handle when a
	// store path is configured; otherwise everything stays in memory.
	if cfg.StorePath != "" {
		st, err := store.NewSQLiteStore(ctx, cfg.StorePath)
		if err != nil {
			log.Error(ctx, "failed to open store", logger.String("path", cfg.StorePath), logger.Error(err))
			return
		}
		defer func() {
			if err := st.Close(); err != nil {
				log.Error(ctx, "failed to close store", logger.Error(err))
			}
		}()

		sink, err := audit.NewSQLiteSink(ctx, st.DB())
		if err != nil {
			log.Error(ctx, "failed to open audit log", logger.Error(err))
			return
		}
		opts = append(opts, app.WithStore(st), app.WithAuditSink(sink))
	}

	switch cfg.Provider {
	case "file":
		opts = append(opts, app.WithProvider(provider.NewFile(cfg.ProviderFile)))
	default:
		opts = append(opts, app.WithProvider(provider.NewSynthetic()))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())

	apiServer := api.NewServer(svc, svc, cfg.MaxRankingLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater refreshes queue and worker gauges on a timer.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.Stats(ctx)
			if queueLen, ok := stats["queueLength"].(int); ok {
				metrics.UpdateRebuildQueueSize(queueLen)
			}
			if workerCount, ok := stats["workerCount"].(int); ok {
				metrics.UpdateWorkerCount(workerCount)
			}
		}
	}
}
