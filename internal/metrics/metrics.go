// Package metrics defines the Prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalyzeRequests counts analysis requests by search type and outcome.
	AnalyzeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_analyze_requests_total",
			Help: "Total number of analysis requests",
		},
		[]string{"search_type", "outcome"},
	)

	// AnalyzeDuration observes end-to-end analysis latency.
	AnalyzeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "scout_analyze_duration_seconds",
			Help: "Duration of analysis requests in seconds",
		},
		[]string{"search_type"},
	)

	// CacheHits counts response-cache hits by backend.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"backend"},
	)

	// CacheMisses counts response-cache misses by backend.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_cache_misses_total",
			Help: "Total number of response cache misses",
		},
		[]string{"backend"},
	)
)
