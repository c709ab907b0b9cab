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
	openai "github.com/sashabaranov/go-openai"

	"github.com/sage-edu/sage-go-api/internal/config"
	"github.com/sage-edu/sage-go-api/internal/database"
	"github.com/sage-edu/sage-go-api/internal/handler"
	"github.com/sage-edu/sage-go-api/internal/middleware"
	"github.com/sage-edu/sage-go-api/internal/models"
	"github.com/sage-edu/sage-go-api/internal/repository"
	"github.com/sage-edu/sage-go-api/internal/router"
	"github.com/sage-edu/sage-go-api/internal/service"
	"github.com/sage-edu/sage-go-api/pkg/similarity"
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
		&models.Student{},
		&models.Assessment{},
		&models.Question{},
		&models.Submission{},
		&models.Answer{},
		&models.GradingRun{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	scorer, err := buildScorer(cfg, logger)
	if err != nil {
		log.Fatalf("failed to build similarity scorer: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assessmentRepo := repository.NewAssessmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	runRepo := repository.NewGradingRunRepository(db)

	publisher := service.NewNATSGradingPublisher(natsConn, "", logger)

	assessmentService := service.NewAssessmentService(assessmentRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assessmentRepo, validate, logger)
	gradingService := service.NewGradingService(submissionRepo, answerRepo, runRepo, scorer, publisher, logger, cfg.ScoringConcurrency)
	sessionService := service.NewGradingSessionService(submissionRepo, redisClient, cfg.SessionTTL, logger)

	assessmentHandler := handler.NewAssessmentHandler(assessmentService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, sessionService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssessmentHandler: assessmentHandler,
		SubmissionHandler: submissionHandler,
		GradingHandler:    gradingHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildScorer(cfg config.Config, logger zerolog.Logger) (similarity.Scorer, error) {
	switch cfg.SimilarityProvider {
	case "openai":
		return similarity.NewOpenAIScorer(similarity.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  openai.EmbeddingModel(cfg.OpenAIModel),
			Logger: logger,
		})
	default:
		return similarity.NewHuggingFaceScorer(similarity.HuggingFaceConfig{
			Endpoint: cfg.SimilarityEndpoint,
			Token:    cfg.SimilarityToken,
			Timeout:  cfg.SimilarityTimeout,
			Logger:   logger,
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
