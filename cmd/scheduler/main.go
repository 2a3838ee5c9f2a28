package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"habitd/internal/repository"
	"habitd/internal/service"
	"habitd/pkg/config"
	"habitd/pkg/db"
	"habitd/pkg/dedup"
	"habitd/pkg/logger"
	"habitd/pkg/mq"
	"habitd/pkg/redis"
)

// Dedup keys outlive the day they guard by an hour so a tick straddling
// midnight cannot re-fire yesterday's trigger.
const dedupTTL = 25 * time.Hour

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.Path())
	if err != nil {
		panic(err)
	}

	log := logger.New()
	defer log.Sync()

	log.Info("Starting habitd scheduler...",
		zap.String("db_host", cfg.DB.Host),
		zap.String("mq_url", cfg.MQ.URL),
		zap.String("timezone", cfg.App.Timezone),
	)

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Fatal("Invalid timezone", zap.Error(err))
	}

	pool, err := db.NewPool(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer pool.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	rdb := redis.NewClient(cfg.Redis)
	defer rdb.Close()

	triggerRepo := repository.NewTriggerRepository(pool, log)
	deduper := dedup.New(rdb, dedupTTL, log)

	scheduler := service.NewScheduler(triggerRepo, publisher, deduper, loc, log)

	ctx, cancel := context.WithCancel(context.Background())
	go scheduler.Run(ctx)

	log.Info("habitd scheduler is running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down habitd scheduler gracefully...")
	cancel()

	publisher.Close()
	pool.Close()

	log.Info("habitd scheduler shutdown complete")
}
