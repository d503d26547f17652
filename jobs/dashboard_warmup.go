package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/soule-smart/dashboard/internal/dashboard"
	jobmetrics "github.com/soule-smart/dashboard/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const warmupTimeout = 20 * time.Second

// DatasetLoader reads the dashboard dataset through the cache; *dashboard.Service
// satisfies it.
type DatasetLoader interface {
	Dataset(ctx context.Context) (dashboard.Dataset, error)
}

// Bumper invalidates the dataset cache.
type Bumper interface {
	Bump(ctx context.Context) error
}

// WarmupJob loads the dataset into Redis so the first request after a cache bump
// is served from the cache, then derives the selected states from it.
type WarmupJob struct {
	Service DatasetLoader
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewWarmupJob wires dependencies for the warmup handler.
func NewWarmupJob(service DatasetLoader, logger *slog.Logger, metrics *jobmetrics.Metrics) *WarmupJob {
	return &WarmupJob{
		Service: service,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dashboard warmup tasks.
func (j *WarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload WarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("dashboard warmup: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	states, err := warmupStates(payload)
	if err != nil {
		return fmt.Errorf("dashboard warmup: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	start := j.now()
	logger := j.logger()
	logger.Info("starting dashboard warmup", slog.Int("states", len(states)))

	err = j.Warm(ctx, states)
	if err != nil {
		logger.Error("dashboard warmup", slog.Any("error", err))
	} else {
		logger.Info("completed dashboard warmup", slog.Int("states", len(states)), slog.Duration("duration", j.now().Sub(start)))
	}
	return tracker.End(err)
}

// Warm loads the dataset once and derives every state from it. KPIs that fall
// back to placeholders are logged, since every request would show them too.
func (j *WarmupJob) Warm(ctx context.Context, states []dashboard.State) error {
	loadCtx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()
	data, err := j.Service.Dataset(loadCtx)
	if err != nil {
		return fmt.Errorf("warm dataset: %w", err)
	}
	j.metrics().MarkWarmed()

	logger := j.logger()
	for _, kpi := range dashboard.DeriveKPIs(data.Revenue, data.Channels) {
		if kpi.Err != nil {
			logger.Warn("kpi unavailable", slog.String("kpi", kpi.ID), slog.Any("error", kpi.Err))
		}
	}
	for _, state := range states {
		snap := dashboard.Derive(state, data)
		if len(snap.Revenue) == 0 {
			logger.Warn("empty revenue trend", slog.String("range", string(state.Range)), slog.String("segment", string(state.Segment)))
		}
	}
	return nil
}

// warmupStates expands the payload selection into concrete states.
func warmupStates(payload WarmupPayload) ([]dashboard.State, error) {
	ranges := dashboard.Ranges()
	if len(payload.Ranges) > 0 {
		ranges = ranges[:0:0]
		for _, raw := range payload.Ranges {
			r, err := dashboard.ParseRange(raw)
			if err != nil {
				return nil, err
			}
			ranges = append(ranges, r)
		}
	}
	segments := dashboard.Segments()
	if len(payload.Segments) > 0 {
		segments = segments[:0:0]
		for _, raw := range payload.Segments {
			s, err := dashboard.ParseSegment(raw)
			if err != nil {
				return nil, err
			}
			segments = append(segments, s)
		}
	}
	states := make([]dashboard.State, 0, len(ranges)*len(segments))
	for _, r := range ranges {
		for _, s := range segments {
			states = append(states, dashboard.State{Range: r, Segment: s})
		}
	}
	return states, nil
}

func (j *WarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *WarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *WarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// CacheBumpJob invalidates the dataset cache, e.g. after a reseed.
type CacheBumpJob struct {
	Cache   Bumper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes cache bump tasks.
func (j *CacheBumpJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Cache == nil {
		return errors.New("cache bump: handler not configured")
	}
	var payload CacheBumpPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("cache bump: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskCacheBump)
	err := j.Cache.Bump(ctx)
	if err == nil && j.Logger != nil {
		j.Logger.Info("dashboard cache bumped", slog.String("reason", payload.Reason))
	}
	return tracker.End(err)
}
