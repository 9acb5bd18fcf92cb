package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/zidir/medcom-backend/api/routes"
	"github.com/zidir/medcom-backend/internal/monitor"
	"github.com/zidir/medcom-backend/internal/notifications"
	"github.com/zidir/medcom-backend/internal/pharmacies"
	"github.com/zidir/medcom-backend/internal/products"
	"github.com/zidir/medcom-backend/internal/supplier"
	"github.com/zidir/medcom-backend/internal/users"
	"github.com/zidir/medcom-backend/internal/watchlist"
	"github.com/zidir/medcom-backend/pkg/config"
	"github.com/zidir/medcom-backend/pkg/db"
	"github.com/zidir/medcom-backend/pkg/logger"
	"github.com/zidir/medcom-backend/pkg/migrate"
	"github.com/zidir/medcom-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	pharmacyService, err := pharmacies.NewService(pharmacies.ServiceParams{
		PharmacyRepo: pharmacies.NewRepository(dbClient.DB()),
		UserRepo:     users.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pharmacies service", err)
		os.Exit(1)
	}

	productRepo := products.NewRepository(dbClient.DB())
	productService, err := products.NewService(productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	watchlistService, err := watchlist.NewService(watchlist.ServiceParams{
		WatchRepo:   watchlist.NewRepository(dbClient.DB()),
		ProductRepo: productRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create watch list service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	monitorService, err := buildMonitorService(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create monitor service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			pharmacyService,
			productService,
			watchlistService,
			notificationsService,
			monitorService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// buildMonitorService wires the availability job behind the shared Redis lock
// so the admin trigger endpoint never overlaps a worker cycle.
func buildMonitorService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*monitor.Service, error) {
	lock, err := monitor.NewRedisLock(redisClient, monitorLockKey(cfg, redisClient), cfg.Monitor.LockTTL)
	if err != nil {
		return nil, err
	}

	job, err := buildAvailabilityJob(cfg, logg, dbClient)
	if err != nil {
		return nil, err
	}

	return monitor.NewService(monitor.ServiceParams{
		Logger:   logg,
		Registry: monitor.NewRegistry(job),
		Lock:     lock,
		Interval: cfg.Monitor.Interval(),
	})
}

func buildAvailabilityJob(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (monitor.Job, error) {
	supplierClient, err := supplier.New(cfg.SupplierAPI, logg)
	if err != nil {
		return nil, err
	}

	fanout, err := monitor.NewFanout(logg, users.NewRepository(dbClient.DB()))
	if err != nil {
		return nil, err
	}

	return monitor.NewAvailabilityJob(monitor.AvailabilityJobParams{
		Logger:           logg,
		DB:               dbClient,
		WatchRepo:        watchlist.NewRepository(dbClient.DB()),
		NotificationRepo: notifications.NewRepository(dbClient.DB()),
		Fanout:           fanout,
		Supplier:         supplierClient,
	})
}

func monitorLockKey(cfg *config.Config, redisClient *redis.Client) string {
	env := cfg.App.Env
	if env == "" {
		env = "local"
	}
	return redisClient.LockKey("monitor:" + env)
}
