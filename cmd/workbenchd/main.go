package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tetherlab/workbench/internal/config"
	"github.com/tetherlab/workbench/internal/fetch"
	"github.com/tetherlab/workbench/internal/health"
	"github.com/tetherlab/workbench/internal/metrics"
	"github.com/tetherlab/workbench/internal/mgmt"
	"github.com/tetherlab/workbench/internal/model"
	"github.com/tetherlab/workbench/internal/retry"
	"github.com/tetherlab/workbench/internal/typecheck"
	"github.com/tetherlab/workbench/internal/workspace"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("WORKBENCH_ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("worker_url", cfg.WorkerURL).
		Str("auth_mode", cfg.AuthMode).
		Msg("starting workbench")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	metricsCollector := metrics.New()

	httpFetcher := fetch.NewHTTP(logger,
		fetch.WithCacheSize(cfg.BundleCacheSize),
		fetch.WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout}),
		fetch.WithRetry(retry.Config{
			MaxAttempts: cfg.FetchRetries,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    5 * time.Second,
		}),
	)
	httpFetcher.CacheHit = metricsCollector.RecordFetchCache

	dialer := typecheck.NewDialer(typecheck.DialerConfig{
		WorkerURL:      cfg.WorkerURL,
		Token:          cfg.WorkerToken,
		RequestTimeout: cfg.WorkerTimeout,
	}, logger)

	ws := workspace.NewManager(
		fetch.Dispatch{HTTP: httpFetcher},
		model.NewInMemory(),
		dialer,
		logger,
		workspace.WithMetrics(metricsCollector),
	)

	checker := health.NewChecker(logger)
	checker.Register("workspace", func(ctx context.Context) health.Status {
		if !ws.Loaded() {
			return health.StatusDegraded
		}
		return health.StatusOK
	})
	checker.Register("worker", func(ctx context.Context) health.Status {
		if err := dialer.Ping(ctx); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	// Optional startup bundle
	if cfg.BundleLocator != "" {
		loadCtx, loadCancel := context.WithTimeout(ctx, cfg.FetchTimeout)
		if err := ws.Load(loadCtx, cfg.BundleLocator); err != nil {
			logger.Fatal().Err(err).Str("locator", cfg.BundleLocator).Msg("failed to load startup bundle")
		}
		loadCancel()
		logger.Info().Str("locator", cfg.BundleLocator).Msg("startup bundle loaded")
	}

	server := mgmt.NewServer(mgmt.ServerConfig{
		ListenAddr: cfg.ListenAddr,
		AuthConfig: mgmt.AuthConfig{
			Mode:      cfg.AuthMode,
			APIKey:    cfg.APIKey,
			JWTSecret: cfg.JWTSecret,
		},
		CORSOrigins: cfg.CORSOrigins,
	}, ws, checker, metricsCollector, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("management API server failed")
		}
	}

	cancel()

	shutdownDone := make(chan struct{})
	go func() {
		if err := server.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
	case <-time.After(10 * time.Second):
		logger.Warn().Msg("shutdown timed out")
	}

	logger.Info().Msg("workbench stopped")
}
