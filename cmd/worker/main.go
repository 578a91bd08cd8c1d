package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/fruitline/fruitline/internal/app"
	jobmetrics "github.com/fruitline/fruitline/internal/jobs"
	"github.com/fruitline/fruitline/internal/platform/db"
	"github.com/fruitline/fruitline/internal/shared"
	"github.com/fruitline/fruitline/internal/upstream"
	"github.com/fruitline/fruitline/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if cfg.UpstreamServiceToken == "" {
		logger.Error("UPSTREAM_SERVICE_TOKEN is required by the worker")
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(nil)
	serviceClient := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, nil).With(upstream.Credentials{
		Token:     cfg.UpstreamServiceToken,
		ExpiresAt: upstream.TokenExpiry(cfg.UpstreamServiceToken),
	})

	compensation := jobs.NewCompensationJob(serviceClient, metrics, logger)
	cleanup := jobs.NewCleanupJob(shared.NewIdempotencyStore(pool), cfg.IdempotencyRetention, metrics, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSaleCompensation, Handler: compensation.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanup.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 2 * * *", Task: jobs.NewCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
