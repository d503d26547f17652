package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5"

	"github.com/soule-smart/dashboard/internal/app"
	"github.com/soule-smart/dashboard/internal/dashboard"
	"github.com/soule-smart/dashboard/internal/dashboard/source"
	"github.com/soule-smart/dashboard/internal/platform/cache"
	"github.com/soule-smart/dashboard/internal/platform/db"
)

func main() {
	fixture := flag.String("fixture", "", "YAML dataset to load (defaults to the embedded demo data)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	var data dashboard.Dataset
	if *fixture != "" {
		data, err = source.LoadFixtureFile(*fixture)
	} else {
		data, err = source.DefaultDataset()
	}
	if err != nil {
		logger.Error("load fixture", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 2})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		return source.Seed(ctx, tx, data)
	}); err != nil {
		logger.Error("seed reporting tables", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seeded reporting tables",
		slog.Int("revenue", len(data.Revenue)),
		slog.Int("channels", len(data.Channels)),
		slog.Int("segments", len(data.Segments)),
		slog.Int("events", len(data.Events)),
	)

	client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Warn("redis unavailable, cache not bumped", slog.Any("error", err))
		return
	}
	defer func() { _ = client.Close() }()
	if err := dashboard.NewCache(client, cfg.CacheTTL).Bump(ctx); err != nil {
		logger.Warn("bump cache", slog.Any("error", err))
	}
}
