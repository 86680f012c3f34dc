package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/nearby/internal/config"
	"github.com/UnknownOlympus/nearby/internal/geocoding"
	"github.com/UnknownOlympus/nearby/internal/httpapi"
	"github.com/UnknownOlympus/nearby/internal/metrics"
	"github.com/UnknownOlympus/nearby/internal/repository"
	"github.com/UnknownOlympus/nearby/internal/service"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const shutdownTimeout = 10 * time.Second

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Initialize the database connection.
	dtb, err := repository.NewDatabase(
		ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer dtb.Close()

	// Create a new repository instance using the database connection.
	repo := repository.NewRepository(dtb, logger, cfg.MaxAttempts)
	if cfg.Database.Bootstrap {
		if err = repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to apply schema: %v", err)
		}
	}

	geoProvider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.ProviderType),
		APIKey:    cfg.APIKey,
		RateLimit: cfg.ProviderRateLimit,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Failed to create geocoding provider: %v", err)
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		defer rdb.Close()
		geoProvider = geocoding.NewCachedProvider(geoProvider, rdb, cfg.Redis.TTL, appMetrics, logger)
		logger.InfoContext(ctx, "Geocode cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.ProviderType)

	clock := clockwork.NewRealClock()
	engine := service.NewEngine(
		service.EngineConfig{
			BackfillCap:    cfg.Search.BackfillCap,
			Workers:        cfg.Search.Workers,
			GeocodeTimeout: cfg.Search.GeocodeTimeout,
			BackfillBudget: cfg.Search.BackfillBudget,
		},
		repo,
		geoProvider,
		cfg.ProviderType, // Provider name for metrics
		appMetrics,
		logger,
		clock,
	)

	warmer := service.NewWarmer(
		logger,
		repo,
		service.NewBackfiller(geoProvider, cfg.ProviderType, repo, appMetrics, logger, clock, cfg.Search.GeocodeTimeout),
		appMetrics,
		clock,
		cfg.Warmer.Workers,
		cfg.Warmer.Batch,
		cfg.Warmer.Interval,
	)
	go warmer.Run(ctx)

	server := httpapi.NewServer(httpapi.Options{
		Addr:            fmt.Sprintf(":%d", cfg.Port),
		Searcher:        engine,
		Sitters:         repo,
		Gatherer:        reg,
		OfflineFallback: cfg.OfflineFallback,
		Logger:          logger,
	})

	// Start the API server in a goroutine to allow main to listen for signals.
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "HTTP server failed", "error", err)
			stop()
		}
	}()

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(shutdownCtx, "HTTP server shutdown failed", "error", err)
	}

	// Log graceful shutdown completion.
	logger.InfoContext(shutdownCtx, "Application stopped gracefully.")
}

// setupLogger picks the slog handler for env: readable debug text locally, JSON elsewhere
// with less detail the closer the environment is to production.
func setupLogger(env string) *slog.Logger {
	dropTime := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}

	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn, ReplaceAttr: dropTime}))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError, ReplaceAttr: dropTime}))
	logger.Error(
		"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
		slog.String("available_envs", "local, development, production"))

	return logger
}
