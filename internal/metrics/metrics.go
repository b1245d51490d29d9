package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_cache_hits_total",
		Help: "Feed cache hits by feed kind.",
	}, []string{"kind"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_cache_misses_total",
		Help: "Feed cache misses by feed kind.",
	}, []string{"kind"})

	FeedBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_builds_total",
		Help: "Slow-path feed computations by feed kind.",
	}, []string{"kind"})

	Fallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_home_fallbacks_total",
		Help: "Home feed requests that fell back to explore.",
	})

	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_invalidation_events_total",
		Help: "Invalidation events processed by event type.",
	}, []string{"event_type"})

	EventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_invalidation_failures_total",
		Help: "Invalidation events whose cache deletion failed and were requeued.",
	})
)
