package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/pressmod/backend/internal/models"
	"github.com/pressmod/backend/internal/moderation"
	"github.com/pressmod/backend/internal/queue"
	"github.com/pressmod/backend/internal/repositories"
	"github.com/pressmod/backend/internal/router"
	"github.com/pressmod/backend/pkg/config"
	"github.com/pressmod/backend/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	if err := router.Migrate(db.Postgres); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Repositories
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	postRepo := repositories.NewMongoPostRepository(db.Mongo.Database(cfg.MongoDatabase))
	commentRepo := repositories.NewPostgresCommentRepository(db.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)
	taskRepo := repositories.NewPostgresTaskRepository(db.Postgres, cfg.Queue.MaxAttempts)

	// Classifier with layered credential resolution
	credentials := moderation.CredentialChain{
		moderation.ServiceKeyJSONProvider{JSON: cfg.Moderation.ServiceKeyJSON},
		moderation.ServiceAccountFileProvider{Path: cfg.Moderation.ServiceAccountFile},
		moderation.APIKeyProvider{Key: cfg.Moderation.APIKey},
	}
	classifier := moderation.NewGoogleClassifier(
		cfg.Moderation.Endpoint,
		credentials,
		cfg.Moderation.Timeout,
		log.Named("classifier"),
	)

	moderationService := moderation.NewService(
		commentRepo, userRepo, postRepo, taskRepo, notificationRepo,
		classifier,
		moderation.ServiceOptions{
			FlagThreshold: cfg.Moderation.FlagThreshold,
			PurgeDelay:    cfg.Moderation.PurgeDelay,
		},
		log.Named("moderation"),
	)

	// Background task queue
	runner := queue.NewRunner(taskRepo, queue.Options{
		Workers:   cfg.Queue.Workers,
		PollSpec:  cfg.Queue.PollSpec,
		BatchSize: cfg.Queue.BatchSize,
	}, log)
	runner.Register(models.TaskModerateComment, func(ctx context.Context, task models.Task) error {
		return moderationService.ModerateComment(ctx, task.CommentID)
	})
	runner.Register(models.TaskPurgeComment, func(ctx context.Context, task models.Task) error {
		return moderationService.PurgeComment(ctx, task.CommentID)
	})
	if err := runner.Start(); err != nil {
		log.Fatal("failed to start queue runner", zap.Error(err))
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	router.SetupMiddleware(e)
	router.SetupRoutes(e, cfg, moderationService, userRepo, postRepo, notificationRepo, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Info("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	runner.Stop()
	if err := e.Close(); err != nil {
		log.Error("server close failed", zap.Error(err))
	}
}
