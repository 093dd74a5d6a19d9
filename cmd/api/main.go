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
	"github.com/rs/zerolog"

	"github.com/patrykpoborca/wondernest-go-api/internal/config"
	"github.com/patrykpoborca/wondernest-go-api/internal/database"
	"github.com/patrykpoborca/wondernest-go-api/internal/events"
	"github.com/patrykpoborca/wondernest-go-api/internal/handler"
	"github.com/patrykpoborca/wondernest-go-api/internal/middleware"
	"github.com/patrykpoborca/wondernest-go-api/internal/repository"
	"github.com/patrykpoborca/wondernest-go-api/internal/router"
	"github.com/patrykpoborca/wondernest-go-api/internal/service"
	"github.com/patrykpoborca/wondernest-go-api/internal/validation"
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

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}
	publisher := events.NewPublisher(natsConn, logger)

	extraWords, err := cfg.LoadBlocklistWords()
	if err != nil {
		log.Fatalf("failed to load blocklist: %v", err)
	}
	engine := validation.New(validation.Config{ExtraWords: extraWords})

	validate := validator.New(validator.WithRequiredStructEnabled())

	submissionRepo := repository.NewSubmissionRepository(db)
	queueRepo := repository.NewQueueRepository(db)

	moderationService := service.NewModerationService(queueRepo, submissionRepo, redisClient, service.ModerationConfig{
		SafetyThreshold: cfg.SafetyReviewThreshold,
		ReviewEstimate:  cfg.ReviewTimeEstimate,
		SummaryCacheTTL: cfg.QueueSummaryCacheTTL,
	}, validate, publisher, logger)
	submissionService := service.NewSubmissionService(submissionRepo, engine, moderationService, validate, publisher, logger)

	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	moderationHandler := handler.NewModerationHandler(moderationService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler: submissionHandler,
		ModerationHandler: moderationHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
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
