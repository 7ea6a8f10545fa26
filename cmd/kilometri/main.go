package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kilometri/internal/amqp"
	"kilometri/internal/auth"
	"kilometri/internal/config"
	apphttp "kilometri/internal/http"
	"kilometri/internal/log"
	"kilometri/internal/report"
	"kilometri/internal/routing"
	"kilometri/internal/routing/google"
	"kilometri/internal/services"
	"kilometri/internal/storage"
)

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
		Component: log.ComponentApp,
	})
	slog.SetDefault(logger.Logger)

	logger.Info("Starting kilometri server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port)

	repo, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", log.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var distance routing.DistanceCalculator
	if cfg.GoogleMapsAPIKey != "" {
		distance, err = google.New(cfg.GoogleMapsAPIKey, cfg.DistanceTimeout, logger)
		if err != nil {
			logger.Error("Failed to initialize distance client", log.FieldError, err.Error())
			os.Exit(1)
		}
		logger.Info("Distance lookup enabled")
	} else {
		distance = routing.Unconfigured{}
		logger.Warn("GOOGLE_MAPS_API_KEY not set, distance lookups disabled")
	}

	// Delivery runs through the broker; without one, reports stay queued
	// for the worker's periodic sweep.
	var publisher services.DeliveryPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, report delivery deferred to sweep", log.FieldError, err.Error())
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	renderer := report.NewGenerator(cfg.ReportsDir, logger)

	srv := apphttp.NewServer(
		apphttp.Options{
			Addr:                  ":" + cfg.Port,
			DistanceRatePerMinute: cfg.DistanceRatePerMinute,
		},
		services.NewTripService(repo, distance, logger),
		services.NewReportService(repo, repo, repo, renderer, publisher, logger),
		services.NewAuthService(repo, tokens, logger),
		tokens,
		logger,
	)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown, "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		cancel()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
