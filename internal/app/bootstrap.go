package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/soule-smart/dashboard/internal/dashboard"
	"github.com/soule-smart/dashboard/internal/dashboard/source"
	"github.com/soule-smart/dashboard/internal/platform/cache"
	"github.com/soule-smart/dashboard/internal/platform/db"
)

// Runtime holds the long-lived clients shared by the server and the worker.
type Runtime struct {
	Source  dashboard.Source
	Redis   *redis.Client
	Service *dashboard.Service
	closers []func()
}

// Close releases every client opened by Bootstrap in reverse order.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// RedisOpts returns asynq connection options matching the cache client.
func (c *Config) RedisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// Bootstrap opens the configured data source and Redis. Redis is optional: when
// it cannot be reached the service runs uncached.
func Bootstrap(ctx context.Context, cfg *Config, logger *slog.Logger) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rt := &Runtime{}

	src, err := openSource(ctx, cfg, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Source = src

	var dashCache *dashboard.Cache
	client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Warn("redis unavailable, serving uncached", slog.Any("error", err))
	} else {
		rt.Redis = client
		rt.closers = append(rt.closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		})
		dashCache = dashboard.NewCache(client, cfg.CacheTTL)
	}

	rt.Service = dashboard.NewService(src, dashCache)
	logger.Info("dashboard runtime ready", slog.String("source", src.Name()), slog.Bool("cache", dashCache != nil))
	return rt, nil
}

func openSource(ctx context.Context, cfg *Config, rt *Runtime) (dashboard.Source, error) {
	switch cfg.DataSource {
	case SourcePostgres:
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns, MaxConnLifetime: cfg.PGConnLifetime})
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		pg := source.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	case SourceStatic:
		var (
			data dashboard.Dataset
			err  error
		)
		if cfg.DataFixture != "" {
			data, err = source.LoadFixtureFile(cfg.DataFixture)
		} else {
			data, err = source.DefaultDataset()
		}
		if err != nil {
			return nil, fmt.Errorf("load fixture: %w", err)
		}
		return source.NewStatic(data), nil
	default:
		return nil, fmt.Errorf("unknown DATA_SOURCE %q", cfg.DataSource)
	}
}
