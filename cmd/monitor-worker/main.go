package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zidir/medcom-backend/internal/monitor"
	"github.com/zidir/medcom-backend/internal/notifications"
	"github.com/zidir/medcom-backend/internal/supplier"
	"github.com/zidir/medcom-backend/internal/users"
	"github.com/zidir/medcom-backend/internal/watchlist"
	"github.com/zidir/medcom-backend/pkg/config"
	"github.com/zidir/medcom-backend/pkg/db"
	"github.com/zidir/medcom-backend/pkg/logger"
	"github.com/zidir/medcom-backend/pkg/metrics"
	"github.com/zidir/medcom-backend/pkg/migrate"
	"github.com/zidir/medcom-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "monitor-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "monitor-worker"

	logg = logger.New(logger.Options{
		ServiceName: "monitor-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	supplierClient, err := supplier.New(cfg.SupplierAPI, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create supplier client", err)
		os.Exit(1)
	}

	fanout, err := monitor.NewFanout(logg, users.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notification fanout", err)
		os.Exit(1)
	}

	job, err := monitor.NewAvailabilityJob(monitor.AvailabilityJobParams{
		Logger:           logg,
		DB:               dbClient,
		WatchRepo:        watchlist.NewRepository(dbClient.DB()),
		NotificationRepo: notifications.NewRepository(dbClient.DB()),
		Fanout:           fanout,
		Supplier:         supplierClient,
		Metrics:          jobMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create availability job", err)
		os.Exit(1)
	}

	lock, err := monitor.NewRedisLock(redisClient, lockKey(cfg, redisClient), cfg.Monitor.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create monitor lock", err)
		os.Exit(1)
	}

	service, err := monitor.NewService(monitor.ServiceParams{
		Logger:   logg,
		Registry: monitor.NewRegistry(job),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Monitor.Interval(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create monitor service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Monitor.Interval().String(),
	})
	logg.Info(ctx, "starting monitor worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "monitor worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "monitor worker shutting down gracefully")
}

func lockKey(cfg *config.Config, redisClient *redis.Client) string {
	env := cfg.App.Env
	if env == "" {
		env = "local"
	}
	return redisClient.LockKey("monitor:" + env)
}
