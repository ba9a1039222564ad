package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/SAP-F-2025/homework-service/internal/cache"
	"github.com/SAP-F-2025/homework-service/internal/config"
	"github.com/SAP-F-2025/homework-service/internal/grading"
	"github.com/SAP-F-2025/homework-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/homework-service/internal/repositories/rawsql"
	"github.com/SAP-F-2025/homework-service/internal/services"
	"github.com/SAP-F-2025/homework-service/internal/utils"
	"github.com/SAP-F-2025/homework-service/internal/validator"
	"github.com/SAP-F-2025/homework-service/internal/worker"
	"github.com/SAP-F-2025/homework-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.Environment)
	slogger := utils.ToSlogLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Failed to connect to database")
		os.Exit(1)
	}
	readDB, err := pkg.NewReadDB(db)
	if err != nil {
		logger.LogError(err, "Failed to open read connection")
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.LogError(err, "Failed to connect to Redis")
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Failed to create event publisher")
		os.Exit(1)
	}
	defer publisher.Close()

	subscriber, err := cfg.Events.CreateSubmissionSubscriber(slogger)
	if err != nil {
		logger.LogError(err, "Failed to create submission subscriber")
		os.Exit(1)
	}

	v := validator.New()
	repo := postgres.NewRepository(db)
	keyCache := cache.NewAnswerKeyCache(cache.NewRedisCache(redisClient, slogger), cfg.AnswerKeyCacheTTL, slogger)
	answerKeys := services.NewAnswerKeyService(repo, rawsql.NewAnswerKeyReader(readDB), keyCache, publisher, slogger, v)
	engine := grading.NewEngine(slogger, cfg.Grading)
	submissions := services.NewSubmissionService(repo, answerKeys, engine, publisher, slogger, v)

	w, err := worker.New(worker.Config{
		Subscriber:  subscriber,
		Topic:       cfg.Events.SubmissionTopic,
		Submissions: submissions,
		AnswerKeys:  answerKeys,
		Logger:      logger,
	})
	if err != nil {
		logger.LogError(err, "Failed to create worker")
		os.Exit(1)
	}

	if err := w.Run(ctx); err != nil {
		logger.LogError(err, "Worker stopped")
		os.Exit(1)
	}
	logger.Info("Worker shut down")
}
