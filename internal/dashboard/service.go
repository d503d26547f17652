package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Source is the data-fetch boundary the dashboard derives from.
type Source interface {
	Name() string
	Revenue(ctx context.Context) ([]RevenuePoint, error)
	Channels(ctx context.Context) ([]ChannelPoint, error)
	Segments(ctx context.Context) ([]SegmentPoint, error)
	Events(ctx context.Context) ([]EventRow, error)
}

// Service coordinates dataset loading with the cache layer.
type Service struct {
	source Source
	cache  *Cache
}

// NewService wires a Source with a Cache helper. The cache may be nil.
func NewService(source Source, cache *Cache) *Service {
	return &Service{source: source, cache: cache}
}

// Cache exposes the cache helper for invalidation.
func (s *Service) Cache() *Cache {
	return s.cache
}

// Dataset returns the validated dataset using cache-aware lookups.
func (s *Service) Dataset(ctx context.Context) (Dataset, error) {
	if s == nil || s.source == nil {
		return Dataset{}, fmt.Errorf("dashboard: source not configured")
	}
	loader := func(ctx context.Context) (interface{}, error) {
		return s.load(ctx)
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return Dataset{}, err
		}
		return value.(Dataset), nil
	}

	key, err := s.cache.BuildKey(ctx, keyDataset(s.source.Name()))
	if err != nil {
		return Dataset{}, err
	}
	var data Dataset
	if err := s.cache.FetchJSON(ctx, "dataset", key, &data, loader); err != nil {
		return Dataset{}, err
	}
	return data, nil
}

// Snapshot derives the dashboard for state.
func (s *Service) Snapshot(ctx context.Context, state State) (Snapshot, error) {
	data, err := s.Dataset(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Derive(state, data), nil
}

func (s *Service) load(ctx context.Context) (Dataset, error) {
	var data Dataset
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		points, err := s.source.Revenue(ctx)
		if err != nil {
			return fmt.Errorf("load revenue: %w", err)
		}
		data.Revenue = points
		return nil
	})
	g.Go(func() error {
		channels, err := s.source.Channels(ctx)
		if err != nil {
			return fmt.Errorf("load channels: %w", err)
		}
		data.Channels = channels
		return nil
	})
	g.Go(func() error {
		segments, err := s.source.Segments(ctx)
		if err != nil {
			return fmt.Errorf("load segments: %w", err)
		}
		data.Segments = segments
		return nil
	})
	g.Go(func() error {
		events, err := s.source.Events(ctx)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		data.Events = events
		return nil
	})

	if err := g.Wait(); err != nil {
		return Dataset{}, err
	}
	if err := data.Validate(); err != nil {
		return Dataset{}, err
	}
	return data, nil
}
