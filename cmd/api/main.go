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

	"github.com/atrium-edu/atrium-go-api/internal/config"
	"github.com/atrium-edu/atrium-go-api/internal/database"
	"github.com/atrium-edu/atrium-go-api/internal/handler"
	"github.com/atrium-edu/atrium-go-api/internal/middleware"
	"github.com/atrium-edu/atrium-go-api/internal/models"
	"github.com/atrium-edu/atrium-go-api/internal/repository"
	"github.com/atrium-edu/atrium-go-api/internal/router"
	"github.com/atrium-edu/atrium-go-api/internal/service"
	"github.com/atrium-edu/atrium-go-api/pkg/ai"
	cloud "github.com/atrium-edu/atrium-go-api/pkg/cloudinary"
	"github.com/atrium-edu/atrium-go-api/pkg/extract"
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
		&models.Course{},
		&models.Enrollment{},
		&models.Student{},
		&models.Assignment{},
		&models.AssignmentQuestion{},
		&models.Submission{},
		&models.SubmissionFile{},
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
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
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

	extractor, err := extract.New(extract.Config{
		ServerURL: cfg.ExtractorURL,
		Timeout:   cfg.ExtractionTimeout,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("failed to create extraction client: %v", err)
	}

	grader, err := buildGrader(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create grader: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.NotificationChannel, natsConn, validate, logger)
	gradingService := service.NewGradingService(submissionRepo, assignmentRepo, grader, notificationService, validate, cfg.GradingTimeout, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, studentRepo, courseRepo, uploader, extractor, gradingService, validate, cfg.ExtractionTimeout, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, uploader, validate, logger)
	courseService := service.NewCourseService(courseRepo, studentRepo, validate, logger)
	studentService := service.NewStudentService(studentRepo, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:   handler.NewSubmissionHandler(submissionService, logger),
		GradingHandler:      handler.NewGradingHandler(gradingService, logger),
		CourseHandler:       handler.NewCourseHandler(courseService, logger),
		StudentHandler:      handler.NewStudentHandler(studentService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, cfg.SSEKeepAlive),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	runCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()
	notificationService.Start(runCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildGrader(cfg config.Config, logger zerolog.Logger) (ai.Grader, error) {
	switch cfg.AIProvider {
	case "anthropic":
		return ai.NewAnthropicGrader(ai.AnthropicConfig{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AIModel,
		})
	default:
		return ai.NewOpenAIGrader(ai.OpenAIConfig{
			APIKey:          cfg.OpenAIAPIKey,
			Model:           cfg.AIModel,
			SubmissionChars: cfg.PromptCharBudget,
			Logger:          logger,
		})
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
