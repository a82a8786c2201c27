package main

import (
	"context"
	"net/http"
	"os"

	"github.com/avelasquez/taskflow-backend/api/routes"
	"github.com/avelasquez/taskflow-backend/internal/boards"
	"github.com/avelasquez/taskflow-backend/internal/changes"
	"github.com/avelasquez/taskflow-backend/internal/feed"
	"github.com/avelasquez/taskflow-backend/internal/mentions"
	"github.com/avelasquez/taskflow-backend/internal/notifications"
	"github.com/avelasquez/taskflow-backend/internal/posts"
	"github.com/avelasquez/taskflow-backend/internal/users"
	"github.com/avelasquez/taskflow-backend/pkg/config"
	"github.com/avelasquez/taskflow-backend/pkg/db"
	"github.com/avelasquez/taskflow-backend/pkg/logger"
	"github.com/avelasquez/taskflow-backend/pkg/migrate"
	"github.com/avelasquez/taskflow-backend/pkg/realtime"
	"github.com/avelasquez/taskflow-backend/pkg/redis"
	"github.com/joho/godotenv"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "taskflow-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "taskflow-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	usersRepo := users.NewRepository(conn)
	boardsRepo := boards.NewRepository(conn)
	postsRepo := posts.NewRepository(conn)
	notificationsRepo := notifications.NewRepository(conn)
	feedRepo := feed.NewRepository(conn)

	notificationsService, err := notifications.NewService(notifications.ServiceParams{
		Repo:       notificationsRepo,
		FeedRepo:   feedRepo,
		Posts:      postsRepo,
		Extractor:  mentions.NewExtractor(usersRepo),
		Classifier: changes.NewClassifier(usersRepo, boardsRepo, logg),
		Content:    notifications.GormContentStore{},
		Broadcast:  realtime.NewBroadcaster(redisClient, logg),
		Tx:         dbClient,
		Logger:     logg,
		Config:     cfg.Notifications,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	feedService, err := feed.NewService(feedRepo, postsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create feed service", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, notificationsService, feedService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
