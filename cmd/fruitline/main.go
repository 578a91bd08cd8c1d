package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fruitline/fruitline/internal/app"
	"github.com/fruitline/fruitline/internal/auth"
	"github.com/fruitline/fruitline/internal/dispatch"
	"github.com/fruitline/fruitline/internal/observability"
	"github.com/fruitline/fruitline/internal/platform/cache"
	"github.com/fruitline/fruitline/internal/platform/db"
	"github.com/fruitline/fruitline/internal/pos"
	"github.com/fruitline/fruitline/internal/rbac"
	"github.com/fruitline/fruitline/internal/reference"
	"github.com/fruitline/fruitline/internal/sales"
	"github.com/fruitline/fruitline/internal/shared"
	"github.com/fruitline/fruitline/internal/upstream"
	"github.com/fruitline/fruitline/jobs"
	"github.com/fruitline/fruitline/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "fruitline_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	upstreamClient := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, metrics)
	binders := app.NewBinders(upstreamClient)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	authHandler := auth.NewHandler(logger, auth.NewService(upstreamClient), sessionManager, csrfManager)

	loader := reference.NewLoader(logger)
	tripService := dispatch.NewService(loader, auditLogger, metrics, logger)
	tripHandler := dispatch.NewHandler(logger, tripService, binders.Trips, rbacMiddleware)

	sheetRenderer, err := report.NewRenderer(cfg.CurrencyLocale)
	if err != nil {
		logger.Error("init trip sheet renderer", slog.Any("error", err))
		os.Exit(1)
	}
	pdfClient := report.NewClient(cfg.GotenbergURL, 30*time.Second)
	if err := pdfClient.Ping(ctx); err != nil {
		logger.Warn("gotenberg unavailable, pdf trip sheets disabled until it answers", slog.Any("error", err))
	}
	sheetHandler := report.NewHandler(sheetRenderer, pdfClient, binders.Sheets, rbacMiddleware, logger)

	checkout := pos.NewCheckout(pos.CheckoutConfig{
		Mode:        cfg.CheckoutMode,
		Compensator: jobClient,
		Idempotency: idempotencyStore,
		Audit:       auditLogger,
		Observer:    metrics,
		Logger:      logger,
	})
	posService := pos.NewService(pos.NewCartStore(redisClient, cfg.CartTTL), checkout, logger)
	posHandler := pos.NewHandler(logger, posService, binders.POS, rbacMiddleware)

	salesHandler := sales.NewHandler(logger, sales.NewService(auditLogger, logger), binders.Sales, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Metrics:        metrics,
		AuthHandler:    authHandler,
		TripHandler:    tripHandler,
		SheetHandler:   sheetHandler,
		POSHandler:     posHandler,
		SalesHandler:   salesHandler,
		JobHandler:     jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("upstream", cfg.UpstreamBaseURL), slog.String("checkout_mode", cfg.CheckoutMode))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
