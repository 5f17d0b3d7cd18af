package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kututorium/adminserve/internal/api"
	"github.com/kututorium/adminserve/internal/backend"
	"github.com/kututorium/adminserve/internal/config"
	"github.com/kututorium/adminserve/internal/db"
	"github.com/kututorium/adminserve/internal/moderation"
	"github.com/kututorium/adminserve/internal/observability"
	"github.com/kututorium/adminserve/internal/ratelimit"
	"github.com/kututorium/adminserve/internal/session"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	var sink *observability.FileSink
	if cfg.LogFile != "" {
		sink = &observability.FileSink{
			Path:       cfg.LogFile,
			MaxSizeMB:  cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAgeDays: cfg.LogMaxAgeDays,
		}
	}
	logger, err := observability.InitLoggerWithService(cfg.ServiceName, sink)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, observability.TracingConfig{
			ServiceName: cfg.ServiceName,
			Environment: cfg.Env,
			Endpoint:    cfg.TempoEndpoint,
			SampleRate:  cfg.TracingSampleRate,
		})
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown()
	}

	metricsRegistry := observability.NewPrometheusRegistry()
	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger, metricsRegistry)

	opts := moderation.Options{
		BanDuration: cfg.BanDuration,
		SnapshotTTL: cfg.SnapshotTTL,
		Logger:      logger,
		Metrics:     metricsRegistry,
	}

	// Without redis busy locks stay in process and snapshots expire on their own.
	var store *db.RedisStore
	if cfg.RedisAddr != "" {
		rs, err := db.InitRedis(cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("failed to connect redis: %w", err)
		}
		defer rs.Close()
		store = rs
		opts.Guard = moderation.NewRedisGuard(store, cfg.BusyTTL, logger)
		opts.Notifier = store
	} else {
		logger.Warn("REDIS_ADDR not set, busy locks are local to this instance")
	}

	svc := moderation.NewService(client, opts)
	if store != nil {
		if err := store.SubscribeUpdates(ctx, logger, svc.HandleUpdate); err != nil {
			return fmt.Errorf("subscribe updates: %w", err)
		}
	}

	sessions := session.NewManager([]byte(cfg.SessionSecret), cfg.SessionTTL)

	loginLimiter := ratelimit.NewKeyedLimiter("login", ratelimit.Config{
		Capacity: cfg.LoginRateLimitCapacity,
		Refill:   cfg.LoginRateLimitRefill,
		Per:      time.Minute,
		Enabled:  cfg.LoginRateLimitEnabled,
	}, metricsRegistry)
	loginLimiter.StartPruning(10*time.Minute, ctx.Done(), logger)

	srvDeps := api.NewServer(logger, metricsRegistry, cfg, client, svc, sessions, loginLimiter)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      srvDeps.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Admin server running",
		zap.String("addr", addr),
		zap.String("backend", cfg.BackendURL),
		zap.Duration("ban_duration", cfg.BanDuration))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
