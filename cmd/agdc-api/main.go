package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/smr547/agdc/internal/adapter/api"
	"github.com/smr547/agdc/internal/adapter/metrics"
	"github.com/smr547/agdc/internal/adapter/repository/postgres"
	redisrepo "github.com/smr547/agdc/internal/adapter/repository/redis"
	"github.com/smr547/agdc/internal/domain"
	"github.com/smr547/agdc/internal/pkg/config"
	"github.com/smr547/agdc/internal/pkg/logger"
	"github.com/smr547/agdc/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.NewQueryMetrics()

	// --- Start Admin and Metrics Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())

	adminServer := &http.Server{
		Addr:    cfg.AdminServerAddr,
		Handler: adminMux,
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database Connection ---
	pool, err := postgres.Connect(ctx, cfg.DSN(), cfg.SearchPath, cfg.QueryTimeout)
	if err != nil {
		logger.Error("failed to connect to datacube database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// --- Optional Cell Cache ---
	var cache domain.CellCache
	if cfg.RedisAddr != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisAddr)
		if err != nil {
			logger.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("could not connect to redis, running without the cell cache", "error", err)
		} else {
			cache = redisrepo.NewCellCache(redisClient, logger, cfg.CellCacheTTL)
		}
	}

	// --- Initialize Service and Server ---
	store := postgres.NewTileStore(pool, logger, cfg.FetchSize)
	catalogue := usecase.NewCatalogueService(store, cache, m, logger)

	apiServer := &http.Server{
		Addr:        cfg.APIServerAddr,
		Handler:     api.NewRouter(cfg, logger, catalogue),
		ReadTimeout: 5 * time.Second,
		// Exports can stream for minutes on large date ranges.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		logger.Info("starting catalogue server", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("catalogue server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("catalogue server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
