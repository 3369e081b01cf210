// Package main runs the notification email worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/condoops/backend/config"
	"github.com/condoops/backend/internal/emaillog"
	"github.com/condoops/backend/internal/worker"
	"github.com/condoops/backend/pkg/database"
	"github.com/condoops/backend/pkg/mailer"
	"github.com/condoops/backend/pkg/queue"
	"github.com/condoops/backend/pkg/redis"
)

const emailQueueKey = "emails"

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), 2, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	smtp := mailer.NewSMTP(
		cfg.Email.SMTPHost, cfg.Email.SMTPPort,
		cfg.Email.SMTPUser, cfg.Email.SMTPPass,
		cfg.Email.FromAddress, cfg.Email.FromName,
		cfg.Email.SMTPUseTLS,
	)

	emailQueue := queue.New(rdb, emailQueueKey)
	logRepo := emaillog.NewRepository(pool)
	processor := worker.NewEmailProcessor(smtp, logRepo, emailQueue, cfg.App.Name, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutdown signal received")
		cancel()
	}()

	logger.Info("email worker started", zap.String("queue", emailQueueKey))
	processor.Run(runCtx)
	logger.Info("email worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
