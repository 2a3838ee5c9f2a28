package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	contracts "habitd/contracts/mq"
	"habitd/internal/mailer"
	"habitd/internal/mqhandler"
	"habitd/internal/repository"
	"habitd/internal/service"
	"habitd/pkg/config"
	"habitd/pkg/db"
	"habitd/pkg/logger"
	"habitd/pkg/mq"
)

const workerPort = "8091"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.Path())
	if err != nil {
		panic(err)
	}

	log := logger.New()
	defer log.Sync()

	log.Info("Starting habitd worker...",
		zap.String("db_host", cfg.DB.Host),
		zap.String("mq_url", cfg.MQ.URL),
		zap.String("mail_driver", cfg.Mail.Driver),
	)

	pool, err := db.NewPool(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer pool.Close()

	mail := mailer.New(cfg.Mail, log)

	// Publisher doubles as the dead-letter sink for unprocessable jobs.
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()
	if err := publisher.SetupDLQ(contracts.RoutingKeyHabitReminder, contracts.RoutingKeyVerifyEmail); err != nil {
		log.Fatal("Failed to set up DLQ", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(pool)
	habitRepo := repository.NewHabitRepository(pool, log)

	reminderService := service.NewReminderService(userRepo, habitRepo, mail, log)
	reminderHandler := mqhandler.NewReminderHandler(reminderService, publisher, log)
	verifyHandler := mqhandler.NewVerifyEmailHandler(mail, publisher, log)

	reminderConsumer, err := mq.NewConsumer(
		cfg.MQ.URL,
		"notification.habit_reminder.q",
		contracts.RoutingKeyHabitReminder,
		log,
	)
	if err != nil {
		log.Fatal("Failed to init reminder consumer", zap.Error(err))
	}
	defer reminderConsumer.Close()
	reminderConsumer.SetHandler(reminderHandler.Handle)

	verifyConsumer, err := mq.NewConsumer(
		cfg.MQ.URL,
		"notification.verify_email.q",
		contracts.RoutingKeyVerifyEmail,
		log,
	)
	if err != nil {
		log.Fatal("Failed to init verification consumer", zap.Error(err))
	}
	defer verifyConsumer.Close()
	verifyConsumer.SetHandler(verifyHandler.Handle)

	go func() {
		if err := reminderConsumer.StartConsuming(); err != nil {
			log.Fatal("Reminder consumer failed", zap.Error(err))
		}
	}()
	go func() {
		if err := verifyConsumer.StartConsuming(); err != nil {
			log.Fatal("Verification consumer failed", zap.Error(err))
		}
	}()

	// Small HTTP surface for health checks and metrics.
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		if !reminderConsumer.IsConnected() || !verifyConsumer.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_connected"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{Addr: ":" + workerPort, Handler: r}
	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("habitd worker is fully initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down habitd worker gracefully...")

	reminderConsumer.Close()
	verifyConsumer.Close()
	publisher.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	pool.Close()

	log.Info("habitd worker shutdown complete")
}
