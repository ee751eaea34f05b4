package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/api"
	"github.com/piccolojnr/planning-platform/internal/engine"
	"github.com/piccolojnr/planning-platform/internal/realtime"
	"github.com/piccolojnr/planning-platform/internal/repository"
	"github.com/piccolojnr/planning-platform/internal/service"
	"github.com/piccolojnr/planning-platform/pkg/config"
	"github.com/piccolojnr/planning-platform/pkg/db"
	"github.com/piccolojnr/planning-platform/pkg/logger"
	"github.com/piccolojnr/planning-platform/pkg/mq"
	"github.com/piccolojnr/planning-platform/pkg/otel"
	"github.com/piccolojnr/planning-platform/pkg/outbox"
	redisclient "github.com/piccolojnr/planning-platform/pkg/redis"
)

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.Load(config.GetConfigEnv(), "")
	if err != nil {
		log.Fatal("Config load failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(otel.Config{
		ServiceName:    "planning-server",
		ServiceVersion: "1.0.0",
		Endpoint:       cfg.Otel.Endpoint,
		Enabled:        cfg.Otel.Enabled,
	}, log)
	if err != nil {
		log.Fatal("Tracing initialization failed", zap.Error(err))
	}
	defer shutdownTracing()

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init Redis
	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	// Init RabbitMQ Publisher + outbox dispatcher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Publisher initialization failed", zap.Error(err))
	}
	defer publisher.Close()

	outboxRepo := outbox.NewRepository(dbConn)
	// short interval keeps refetch pings near-realtime
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log).
		WithInterval(500 * time.Millisecond).
		WithBatchSize(200).
		WithMaxRetries(8)
	go dispatcher.Start(ctx)

	// Change feed and realtime hub
	feed := realtime.NewChangeFeed(dbConn, outboxRepo, log)
	hub := realtime.NewHub(rdb, log)

	// Init Repositories
	userRepo := repository.NewUserRepository(dbConn)
	projectRepo := repository.NewProjectRepository(dbConn, feed, log)
	taskRepo := repository.NewTaskRepository(dbConn, log)
	subtaskRepo := repository.NewSubtaskRepository(dbConn, feed, log)
	shareRepo := repository.NewShareRepository(dbConn, log)
	requirementRepo := repository.NewRequirementRepository(dbConn, log)
	chatRepo := repository.NewChatRepository(dbConn, log)
	feedbackRepo := repository.NewFeedbackRepository(dbConn, log)

	// Init Services
	eng := engine.New(taskRepo, subtaskRepo, log)
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret)
	accessService := service.NewAccessService(projectRepo, shareRepo)
	shareService := service.NewShareService(shareRepo, projectRepo, userRepo, feed, log)
	planner := service.NewPlannerClient(cfg.Planner)
	chatService := service.NewChatService(chatRepo, planner, feed, log)
	planService := service.NewPlanService(projectRepo, subtaskRepo, chatRepo, planner, log)

	// Init Handlers
	handlers := api.Handlers{
		Auth:        api.NewAuthHandler(authService, log),
		Project:     api.NewProjectHandler(projectRepo, log),
		Task:        api.NewTaskHandler(taskRepo, eng, feed, log),
		Subtask:     api.NewSubtaskHandler(subtaskRepo, taskRepo, eng, feed, log),
		Requirement: api.NewRequirementHandler(requirementRepo, taskRepo, feed, log),
		Share:       api.NewShareHandler(shareService, log),
		Chat:        api.NewChatHandler(chatService, log),
		Plan:        api.NewPlanHandler(planService, taskRepo, requirementRepo, log),
		Feedback:    api.NewFeedbackHandler(feedbackRepo, log),
		Realtime:    api.NewRealtimeHandler(hub, log),
	}

	// Router
	router := api.NewRouter(handlers, accessService, cfg.JWT.Secret, dbConn, rdb)

	log.Info("Server starting", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("Server start failed", zap.Error(err))
	}
}
