package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"habitd/internal/handler"
	"habitd/internal/httpserver"
	"habitd/internal/repository"
	"habitd/internal/service"
	"habitd/pkg/config"
	"habitd/pkg/db"
	"habitd/pkg/logger"
	"habitd/pkg/mq"
	"habitd/pkg/outbox"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.Path())
	if err != nil {
		panic(err)
	}

	log := logger.New()
	defer log.Sync()

	log.Info("Starting habitd API...",
		zap.String("port", cfg.Server.Port),
		zap.String("db_host", cfg.DB.Host),
		zap.String("mq_url", cfg.MQ.URL),
	)

	// DB
	pool, err := db.NewPool(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer pool.Close()

	// MQ publisher for the outbox dispatcher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	habitRepo := repository.NewHabitRepository(pool, log)
	scheduleRepo := repository.NewScheduleRepository(pool, log)
	recordRepo := repository.NewRecordRepository(pool, log)
	analyticsRepo := repository.NewAnalyticsRepository(pool, log)
	triggerRepo := repository.NewTriggerRepository(pool, log)
	outboxRepo := outbox.NewRepository(pool)

	// Services
	authService := service.NewAuthService(pool, userRepo, outboxRepo, cfg.JWT.Secret, cfg.App.BaseURL, log)
	triggerSync := service.NewTriggerSync(triggerRepo, cfg.App.Timezone, log)

	// Outbox dispatcher moves committed events to the broker; the
	// replay service re-publishes events the dispatcher gave up on.
	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	defer stopDispatcher()
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log)
	go dispatcher.Start(dispatcherCtx)
	replayService := outbox.NewReplayService(outboxRepo, publisher, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, log)
	habitHandler := handler.NewHabitHandler(habitRepo, scheduleRepo, triggerSync, log)
	scheduleHandler := handler.NewScheduleHandler(habitRepo, scheduleRepo, triggerSync, log)
	recordHandler := handler.NewRecordHandler(habitRepo, recordRepo, log)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsRepo, log)
	adminHandler := handler.NewAdminHandler(replayService, log)

	router := httpserver.NewRouter(
		authHandler,
		habitHandler,
		scheduleHandler,
		recordHandler,
		analyticsHandler,
		adminHandler,
		cfg.JWT.Secret,
		pool,
		log,
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router.Engine,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("habitd API is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down habitd API gracefully...")

	stopDispatcher()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	publisher.Close()
	pool.Close()

	log.Info("habitd API shutdown complete")
}
