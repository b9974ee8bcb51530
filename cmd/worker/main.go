package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/levelup-ai/internal/config"
	"github.com/benvon/levelup-ai/internal/database"
	"github.com/benvon/levelup-ai/internal/logger"
	"github.com/benvon/levelup-ai/internal/queue"
	"github.com/benvon/levelup-ai/internal/workers"
	"go.uber.org/zap"
)

const (
	dlqInterval      = time.Hour
	dlqRetention     = 24 * time.Hour
	retentionEvery   = 6 * time.Hour
	defaultKeepDays  = 90
	workerLoggerName = "levelup-ai-worker"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging of processed events")
	keepDays := flag.Int("retention-days", defaultKeepDays, "Days of usage history to keep")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(workerLoggerName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	if err := run(cfg, zapLogger, debugMode, *keepDays); err != nil {
		zapLogger.Fatal("worker_failed", zap.Error(err))
	}
}

func run(cfg *config.Config, zapLogger *zap.Logger, debugMode bool, keepDays int) error {
	if cfg.DatabaseURL == "" || cfg.RabbitMQURL == "" {
		return errors.New("the worker requires DATABASE_URL and RABBITMQ_URL")
	}

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
		zap.Int("retention_days", keepDays),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		return err
	}
	zapLogger.Info("connected_to_database")

	eventQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := eventQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq")

	events := database.NewUsageEventRepository(db)
	recorder := workers.NewUsageRecorder(events, eventQueue, zapLogger, debugMode)

	deadLetters := queue.NewDeadLetterSweeper(eventQueue, dlqInterval, dlqRetention, zapLogger)
	go func() {
		if err := deadLetters.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("dead_letter_sweeper_stopped", zap.Error(err))
		}
	}()

	sweeper := workers.NewRetentionSweeper(events, keepDays, retentionEvery, zapLogger)
	go sweeper.Start(ctx)

	msgs, errs, err := eventQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		return err
	}
	zapLogger.Info("worker_started")

	recorder.Run(ctx, msgs, errs)

	zapLogger.Info("worker_stopped")
	return nil
}
