package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/misolmaz/codegrade-api/internal/config"
	"github.com/misolmaz/codegrade-api/internal/database"
	"github.com/misolmaz/codegrade-api/internal/handler"
	"github.com/misolmaz/codegrade-api/internal/middleware"
	"github.com/misolmaz/codegrade-api/internal/models"
	"github.com/misolmaz/codegrade-api/internal/repository"
	"github.com/misolmaz/codegrade-api/internal/router"
	"github.com/misolmaz/codegrade-api/internal/service"
	"github.com/misolmaz/codegrade-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := newLogger(cfg)

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Assignment{},
		&models.Submission{},
		&models.StudentBadge{},
		&models.Announcement{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set, dashboard cache and cross-node fanout disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	grader, err := ai.NewOpenAIGrader(ai.OpenAIConfig{
		APIKey:    cfg.OpenAIAPIKey,
		Model:     cfg.GradingModel,
		MaxTokens: cfg.GradingMaxTokens,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("failed to create grading client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, "codegrade", natsConn, validate, logger)
	gradingService := service.NewGradingService(grader, logger)
	badgeService := service.NewBadgeService(submissionRepo, badgeRepo, cfg.Badges, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, submissionRepo, studentRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, studentRepo, gradingService, badgeService, notificationService, validate, logger)
	leaderboardService := service.NewLeaderboardService(studentRepo, submissionRepo, badgeRepo, cfg.XP, logger)
	dashboardService := service.NewStudentDashboardService(assignmentRepo, submissionRepo, studentRepo, badgeService, cfg.XP, redisClient, cfg.DashboardCacheTTL, logger)
	announcementService := service.NewAnnouncementService(announcementRepo, validate, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationService.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler:       handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:       handler.NewSubmissionHandler(submissionService, logger),
		LeaderboardHandler:      handler.NewLeaderboardHandler(leaderboardService, logger),
		AnnouncementHandler:     handler.NewAnnouncementHandler(announcementService, logger),
		StudentDashboardHandler: handler.NewStudentDashboardHandler(dashboardService, logger),
		NotificationHandler:     handler.NewNotificationHandler(notificationService, logger),
		JWTMiddleware:           middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("addr", cfg.HTTPAddress()).Str("env", cfg.AppEnv).Msg("server started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}

func newLogger(cfg config.Config) zerolog.Logger {
	if cfg.AppEnv == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
