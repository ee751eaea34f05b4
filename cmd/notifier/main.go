package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/mqhandler"
	"github.com/piccolojnr/planning-platform/internal/realtime"
	"github.com/piccolojnr/planning-platform/pkg/config"
	"github.com/piccolojnr/planning-platform/pkg/logger"
	"github.com/piccolojnr/planning-platform/pkg/mq"
	"github.com/piccolojnr/planning-platform/pkg/otel"
	redisclient "github.com/piccolojnr/planning-platform/pkg/redis"
)

const changeQueue = "realtime.notifier.q"

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.Load(config.GetConfigEnv(), "")
	if err != nil {
		log.Fatal("Config load failed", zap.Error(err))
	}

	log.Info("Starting notifier...",
		zap.String("mq_url", cfg.MQ.URL),
		zap.String("redis_addr", cfg.Redis.Addr),
	)

	shutdownTracing, err := otel.Init(otel.Config{
		ServiceName:    "planning-notifier",
		ServiceVersion: "1.0.0",
		Endpoint:       cfg.Otel.Endpoint,
		Enabled:        cfg.Otel.Enabled,
	}, log)
	if err != nil {
		log.Fatal("Tracing initialization failed", zap.Error(err))
	}
	defer shutdownTracing()

	// Redis
	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	hub := realtime.NewHub(rdb, log)

	// MQ consumer for every changed.* event
	log.Info("Initializing MQ consumer...",
		zap.String("queue", changeQueue),
		zap.String("routing_key", "changed.*"),
	)
	consumer, err := mq.NewConsumer(cfg.MQ.URL, changeQueue, "changed.*", log)
	if err != nil {
		log.Fatal("Failed to init consumer", zap.Error(err))
	}
	defer consumer.Close()

	handler := mqhandler.NewTableChangedHandler(hub, changeQueue, log)
	consumer.SetHandler(handler.Handle)

	go func() {
		log.Info("Starting change event consumer...")
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("Change event consumer failed", zap.Error(err))
		}
	}()

	// HTTP server for health checks and metrics
	port := config.GetEnv("NOTIFIER_PORT", "8081")
	r := gin.Default()
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := rdb.Ping(ctx).Err(); err != nil {
			c.JSON(500, gin.H{"status": "redis_not_ready", "error": err.Error()})
			return
		}
		if !consumer.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	go func() {
		log.Info("HTTP server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("notifier is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down notifier gracefully...")

	consumer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("notifier shutdown complete")
}
