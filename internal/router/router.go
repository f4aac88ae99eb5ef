package router

import (
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pressmod/backend/internal/handlers"
	"github.com/pressmod/backend/internal/middleware"
	"github.com/pressmod/backend/internal/models"
	"github.com/pressmod/backend/internal/moderation"
	"github.com/pressmod/backend/internal/repositories"
	"github.com/pressmod/backend/pkg/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
}

// Migrate runs the PostgreSQL auto-migrations for all relational models.
func Migrate(pgdb *gorm.DB) error {
	return pgdb.AutoMigrate(
		&models.User{},
		&models.Comment{},
		&models.Notification{},
		&models.Task{},
	)
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	moderationService *moderation.Service,
	userRepo repositories.UserRepository,
	postRepo repositories.PostRepository,
	notificationRepo repositories.NotificationRepository,
	logger *zap.Logger,
) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	postHandler := handlers.NewPostHandler(postRepo)
	postHandler.RegisterPostRoutes(api)

	commentHandler := handlers.NewCommentHandler(moderationService)
	commentHandler.RegisterCommentRoutes(api)

	adminHandler := handlers.NewAdminHandler(moderationService, userRepo)
	adminHandler.RegisterAdminRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	notificationHandler.RegisterNotificationRoutes(api)

	logger.Info("routes configured")
}
