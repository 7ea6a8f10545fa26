package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"kilometri/internal/amqp"
	"kilometri/internal/config"
	"kilometri/internal/log"
	"kilometri/internal/mail"
	"kilometri/internal/storage"
	"kilometri/internal/worker"
)

const deliveryBatchSize = 20

func main() {
	// .env is for local development; ignore errors elsewhere
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentWorker,
	})
	slog.SetDefault(logger.Logger)

	logger.Info("Starting kilometri-worker", log.FieldOperation, log.OpStartup)

	repo, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", log.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sender := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom, logger)
	deliveryWorker := worker.NewDeliveryWorker(repo, sender, cfg.ReportsDir, deliveryBatchSize)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Catch up on reports generated while the worker was down.
	if err := deliveryWorker.ProcessPendingReports(ctx); err != nil {
		logger.Error("Startup delivery sweep failed", log.FieldError, err.Error())
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqp.Consume(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, func(msg *amqp.ReportDeliveryMessage) error {
			return deliveryWorker.HandleDeliveryMessage(ctx, msg)
		})
	})

	g.Go(func() error {
		return deliveryWorker.RunSweep(ctx, cfg.SweepInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}
