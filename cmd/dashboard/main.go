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

	"github.com/soule-smart/dashboard/internal/app"
	"github.com/soule-smart/dashboard/internal/dashboard"
	"github.com/soule-smart/dashboard/internal/dashboard/export"
	dashboardhttp "github.com/soule-smart/dashboard/internal/dashboard/http"
	"github.com/soule-smart/dashboard/internal/dashboard/svg"
	"github.com/soule-smart/dashboard/internal/observability"
	"github.com/soule-smart/dashboard/internal/view"
	"github.com/soule-smart/dashboard/jobs"
	"github.com/soule-smart/dashboard/report"
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

	rt, err := app.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap", slog.Any("error", err))
		os.Exit(1)
	}
	defer rt.Close()

	metrics := observability.NewMetrics()
	if err := dashboard.SetupCacheMetrics(metrics.Registerer()); err != nil {
		logger.Warn("register cache metrics", slog.Any("error", err))
	}

	if cache := rt.Service.Cache(); cache != nil {
		cache.OnInvalidate(func(version int64) {
			logger.Info("dashboard cache invalidated", slog.Int64("version", version))
		})
		if err := cache.ListenForInvalidation(ctx, ""); err != nil {
			logger.Warn("subscribe cache invalidation", slog.Any("error", err))
		}
	}

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, logger)

	renderer := svg.Renderer{}
	dashboardHandler := dashboardhttp.NewHandler(
		logger,
		rt.Service,
		templates,
		renderer,
		renderer,
		renderer,
		export.NewPDFExporter(reportClient),
	)
	dashboardHandler.WithExportLimit(cfg.ExportRateLimit)

	readiness := map[string]app.ReadinessCheck{
		"gotenberg": reportClient.Ping,
	}

	var jobHandler *jobs.Handler
	if rt.Redis != nil {
		readiness["redis"] = func(ctx context.Context) error { return rt.Redis.Ping(ctx).Err() }

		inspector := asynq.NewInspector(cfg.RedisOpts())
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		DashboardHandler: dashboardHandler,
		ReportHandler:    reportHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
		Readiness:        readiness,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
