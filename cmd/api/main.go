package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/expertdesk/availability/internal/app"
	"github.com/expertdesk/availability/internal/config"
	controller "github.com/expertdesk/availability/internal/controller/http"
	"github.com/expertdesk/availability/internal/repository"
	"github.com/expertdesk/availability/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	// The summary cache is an optimization; the service runs without it.
	var cache service.SummaryCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, summary caching disabled", zap.Error(err))
		} else {
			cache = repository.NewSummaryCache(client)
		}
	}

	patternRepo := repository.NewPatternRepository(pool)
	overrideRepo := repository.NewOverrideRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	availability := service.NewAvailabilityService(patternRepo, overrideRepo, bookingRepo, cache, logger)
	schedule := service.NewScheduleService(patternRepo, overrideRepo, bookingRepo, cache, service.SinglePatternPolicy, logger)

	router := controller.NewRouter(availability, schedule, cfg.MaxRequestsPerSecond, logger)
	server := app.NewServer(cfg.HTTPAddr, router, logger)

	janitor := app.NewJanitor(schedule, cfg.JanitorInterval, logger)
	janitor.Start(ctx)
	defer janitor.Stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	logger.Info("Availability service started",
		zap.String("environment", cfg.Environment),
		zap.String("addr", cfg.HTTPAddr),
	)

	select {
	case <-ctx.Done():
	case err := <-errChan:
		if err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
