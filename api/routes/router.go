package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avelasquez/taskflow-backend/api/controllers"
	"github.com/avelasquez/taskflow-backend/api/middleware"
	"github.com/avelasquez/taskflow-backend/internal/feed"
	"github.com/avelasquez/taskflow-backend/internal/notifications"
	"github.com/avelasquez/taskflow-backend/pkg/config"
	"github.com/avelasquez/taskflow-backend/pkg/db"
	"github.com/avelasquez/taskflow-backend/pkg/logger"
	"github.com/avelasquez/taskflow-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	notificationsService notifications.Service,
	feedService feed.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		r.Use(middleware.RequireIdentity(logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListGroupedNotifications(notificationsService, logg))
			r.Post("/seen", controllers.MarkGroupSeen(notificationsService, logg))
			r.Post("/seen-all", controllers.MarkAllNotificationsSeen(notificationsService, logg))
		})

		r.Get("/boards/{boardId}/feed", controllers.BoardFeed(feedService, logg))
	})

	return r
}
