package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	specpkg "github.com/teamposts/teamposts/api"
	"github.com/teamposts/teamposts/internal/api"
	"github.com/teamposts/teamposts/internal/api/middleware"
	"github.com/teamposts/teamposts/internal/auth"
	"github.com/teamposts/teamposts/internal/config"
	"github.com/teamposts/teamposts/internal/database"
	"github.com/teamposts/teamposts/internal/logging"
	"github.com/teamposts/teamposts/internal/metrics"
	"github.com/teamposts/teamposts/internal/ratelimit"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Debug:      cfg.Debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	logger.Info("database ready", zap.String("driver", string(db.Driver())))

	store, closeStore, err := newRateLimitStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	repos := db.Repositories()
	router := api.NewRouter(api.RouterDeps{
		Logger:      logger,
		Metrics:     metrics.New(),
		Limiter:     middleware.NewRateLimiter(store, logger, cfg.RateLimitEnabled),
		Limits:      api.LimitsFromConfig(cfg),
		Auth:        auth.NewService(repos.Keys),
		Posts:       repos.Posts,
		OpenAPISpec: specpkg.OpenAPISpec,
		BuildSHA:    cfg.BuildSHA,
		APIPrefix:   cfg.APIPrefix,
		CORSOrigins: cfg.CORSAllowedOrigins,
		TrustProxy:  cfg.TrustProxyHeaders,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server",
			zap.Int("port", cfg.Port),
			zap.String("build_sha", cfg.BuildSHA),
			zap.String("api_prefix", cfg.APIPrefix),
			zap.Bool("rate_limit_enabled", cfg.RateLimitEnabled),
			zap.String("rate_limit_backend", cfg.RateLimitBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// newRateLimitStore builds the configured store and a func releasing it.
func newRateLimitStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ratelimit.Store, func(), error) {
	if cfg.RateLimitBackend != "redis" {
		return ratelimit.NewMemoryStore(ratelimit.DefaultMemoryKeys, time.Minute), func() {}, nil
	}

	client, err := ratelimit.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("configuring redis: %w", err)
	}
	store := ratelimit.NewRedisStore(client, "")
	if err := store.Ping(ctx); err != nil {
		// Requests fail open while Redis is down, so startup continues.
		logger.Warn("redis unreachable at startup", zap.Error(err))
	}
	return store, func() { _ = client.Close() }, nil
}
