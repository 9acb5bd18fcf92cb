package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zidir/medcom-backend/api/controllers"
	"github.com/zidir/medcom-backend/api/middleware"
	"github.com/zidir/medcom-backend/internal/monitor"
	"github.com/zidir/medcom-backend/internal/notifications"
	"github.com/zidir/medcom-backend/internal/pharmacies"
	"github.com/zidir/medcom-backend/internal/products"
	"github.com/zidir/medcom-backend/internal/watchlist"
	"github.com/zidir/medcom-backend/pkg/config"
	"github.com/zidir/medcom-backend/pkg/db"
	"github.com/zidir/medcom-backend/pkg/enums"
	"github.com/zidir/medcom-backend/pkg/logger"
	"github.com/zidir/medcom-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	pharmacyService pharmacies.Service,
	productService products.Service,
	watchlistService watchlist.Service,
	notificationsService notifications.Service,
	monitorService *monitor.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var cachePinger redis.Pinger
	if redisClient != nil {
		cachePinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, cachePinger, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/pharmacies", func(r chi.Router) {
			r.Get("/me", controllers.GetOwnPharmacy(pharmacyService, logg))
			r.Put("/me", controllers.UpdateOwnPharmacy(pharmacyService, logg))
			r.Get("/me/users", controllers.ListPharmacyMembers(pharmacyService, logg))
		})

		r.Route("/v1/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Get("/{productId}", controllers.GetProduct(productService, logg))
		})

		r.Route("/v1/watchlist", func(r chi.Router) {
			r.Post("/", controllers.CreateWatchItem(watchlistService, logg))
			r.Get("/", controllers.ListWatchItems(watchlistService, logg))
			r.Get("/{itemId}", controllers.GetWatchItem(watchlistService, logg))
			r.Patch("/{itemId}", controllers.PatchWatchItem(watchlistService, logg))
			r.Delete("/{itemId}", controllers.DeleteWatchItem(watchlistService, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Get("/unread-count", controllers.CountUnreadNotifications(notificationsService, logg))
			r.Get("/pharmacy", controllers.ListPharmacyNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	triggerPolicy := middleware.NewRateLimitPolicy(
		"monitor-trigger",
		cfg.Monitor.TriggerWindow,
		cfg.Monitor.TriggerLimit,
	)
	var limiter middleware.RateLimiterStore
	if redisClient != nil {
		limiter = redisClient
	}

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.RoleAdmin, logg))

		r.Get("/ping", controllers.AdminPing())
		r.With(middleware.RateLimit(triggerPolicy, limiter, logg)).
			Post("/v1/monitor/run", controllers.TriggerMonitorRun(monitorService, logg))
		r.Delete("/v1/notifications/{notificationId}", controllers.DeleteNotification(notificationsService, logg))
	})

	return r
}
