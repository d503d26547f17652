package dashboard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheMetricsMu          sync.Mutex
	cacheMetricsInitialized bool

	cacheHitCounter   *prometheus.CounterVec
	cacheMissCounter  *prometheus.CounterVec
	cacheMetricsError error
)

// SetupCacheMetrics registers the dataset cache hit/miss counters. The
// registration is performed once and subsequent calls return the first result.
func SetupCacheMetrics(reg prometheus.Registerer) error {
	cacheMetricsMu.Lock()
	defer cacheMetricsMu.Unlock()
	if cacheMetricsInitialized {
		return cacheMetricsError
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "soule_dashboard_cache_hits_total",
		Help: "Number of dashboard cache hits.",
	}, []string{"entry"})
	misses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "soule_dashboard_cache_miss_total",
		Help: "Number of dashboard cache misses.",
	}, []string{"entry"})

	var err error
	if hits, err = registerCounter(reg, hits); err != nil {
		cacheMetricsError = err
		cacheMetricsInitialized = true
		return err
	}
	if misses, err = registerCounter(reg, misses); err != nil {
		cacheMetricsError = err
		cacheMetricsInitialized = true
		return err
	}
	cacheHitCounter = hits
	cacheMissCounter = misses
	cacheMetricsInitialized = true
	return nil
}

func registerCounter(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return nil, fmt.Errorf("dashboard cache metrics: unexpected collector type %T", already.ExistingCollector)
			}
			return existing, nil
		}
		return nil, err
	}
	return c, nil
}

func recordCacheHit(entry string) {
	if cacheHitCounter == nil {
		return
	}
	cacheHitCounter.WithLabelValues(entry).Inc()
}

func recordCacheMiss(entry string) {
	if cacheMissCounter == nil {
		return
	}
	cacheMissCounter.WithLabelValues(entry).Inc()
}
