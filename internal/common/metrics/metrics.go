// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits by category",
		},
		[]string{"category"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses by category",
		},
		[]string{"category"},
	)

	CoalescedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coalescer_requests_total",
			Help: "Total number of by-id requests entering the coalescer",
		},
		[]string{"kind"},
	)

	CoalescedFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coalescer_flushes_total",
			Help: "Total number of upstream batch fetches performed",
		},
		[]string{"kind"},
	)

	RecordLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_loads_total",
			Help: "Total number of record source loads",
		},
		[]string{"kind", "status"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "query_pipeline_duration_seconds",
			Help: "Duration of the analyze/retrieve/budget pipeline in seconds",
		},
		[]string{"stage"},
	)

	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queries_processed_total",
			Help: "Total number of queries processed by assistant type",
		},
		[]string{"assistant_type"},
	)
)
