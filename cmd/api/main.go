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
	"github.com/rs/zerolog"

	"github.com/labsyncpro/labsync-api/internal/config"
	"github.com/labsyncpro/labsync-api/internal/database"
	"github.com/labsyncpro/labsync-api/internal/grading"
	"github.com/labsyncpro/labsync-api/internal/handler"
	"github.com/labsyncpro/labsync-api/internal/middleware"
	"github.com/labsyncpro/labsync-api/internal/models"
	"github.com/labsyncpro/labsync-api/internal/repository"
	"github.com/labsyncpro/labsync-api/internal/router"
	"github.com/labsyncpro/labsync-api/internal/service"
	cloud "github.com/labsyncpro/labsync-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.Group{},
		&models.GroupMember{},
		&models.Assignment{},
		&models.AssignmentDistribution{},
		&models.Submission{},
		&models.Grade{},
		&models.ActivityLog{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	scale := grading.DefaultScale()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	distributionRepo := repository.NewDistributionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	activityService := service.NewActivityService(activityRepo, validate, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.EventChannelBase, natsConn, validate, logger)
	userService := service.NewUserService(userRepo, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, validate, uploader, activityService, logger)
	distributionService := service.NewDistributionService(distributionRepo, assignmentRepo, submissionRepo, gradeRepo, classRepo, validate, activityService, notificationService, logger)
	submissionService := service.NewSubmissionService(submissionRepo, distributionRepo, classRepo, validate, uploader, activityService, cfg.UploadMaxSizeMB, logger)
	gradingService := service.NewGradingService(gradeRepo, submissionRepo, scale, validate, activityService, notificationService, logger)
	dashboardService := service.NewDashboardService(userRepo, distributionRepo, submissionRepo, scale, redisClient, cfg.DashboardCacheTTL, logger)

	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	distributionHandler := handler.NewDistributionHandler(distributionService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, dashboardService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, dashboardService, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, distributionService, userService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger, 30*time.Second)
	activityHandler := handler.NewActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler:   assignmentHandler,
		DistributionHandler: distributionHandler,
		SubmissionHandler:   submissionHandler,
		GradingHandler:      gradingHandler,
		DashboardHandler:    dashboardHandler,
		NotificationHandler: notificationHandler,
		ActivityHandler:     activityHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	runCtx, stopConsumers := context.WithCancel(context.Background())
	notificationService.Start(runCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopConsumers)
}

func waitForShutdown(app *fiber.App, stopConsumers context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopConsumers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
