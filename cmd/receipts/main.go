package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vetmais/payments/internal/config"
	"github.com/vetmais/payments/internal/events"
	"github.com/vetmais/payments/internal/gateway"
	"github.com/vetmais/payments/internal/receipt"
	"github.com/vetmais/payments/internal/server"
	"github.com/vetmais/payments/internal/storage/blob"
	"github.com/vetmais/payments/internal/storage/postgres"
	"github.com/vetmais/payments/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payments service",
		"port", cfg.Server.Port,
		"env", cfg.Primary.Env,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	receiptRepo := postgres.NewReceiptRepository(db)

	limiter := gateway.NewRateLimiter(cfg.RateLimit.Ceiling, cfg.RateLimit.Window)
	executor := gateway.NewRetryExecutor(limiter, logger)
	providerClient := gateway.NewClient(cfg.Provider, cfg.Retry, executor, logger)

	renderer, err := receipt.NewHTMLRenderer()
	if err != nil {
		logger.Error("failed to build document renderer", "error", err)
		os.Exit(1)
	}

	blobStorage, err := blob.NewS3Storage(ctx, cfg.Blob)
	if err != nil {
		logger.Error("failed to configure blob storage", "error", err)
		os.Exit(1)
	}

	publisher := events.NewKafkaPublisher(cfg.Kafka)
	defer publisher.Close()

	generator := receipt.NewGenerator(
		providerClient,
		receiptRepo,
		renderer,
		blobStorage,
		publisher,
		nil,
		logger,
	)

	h := server.NewHandlers(providerClient, generator, receiptRepo, logger)

	handler := server.Recovery(logger)(h.Routes())
	handler = server.Logging(logger)(handler)
	handler = server.Timeout(cfg.Server.ReadTimeout)(handler)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	settlementWorker := worker.NewSettlementWorker(
		receiptRepo,
		providerClient,
		publisher,
		cfg.Worker.Interval,
		cfg.Worker.BatchSize,
		logger,
	)

	backfillWorker := worker.NewBackfillWorker(
		receiptRepo,
		generator,
		blobStorage,
		cfg.Worker.Interval,
		cfg.Worker.BatchSize,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go settlementWorker.Start(workerCtx)
	go backfillWorker.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
