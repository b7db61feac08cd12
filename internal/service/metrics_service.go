package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot is a JSON friendly summary of the collected counters.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	EngineRuns               uint64    `json:"engine_runs"`
	EngineFailures           uint64    `json:"engine_failures"`
	LessonsPlaced            uint64    `json:"lessons_placed"`
	LessonsUnassigned        uint64    `json:"lessons_unassigned"`
	LastConflictCount        int64     `json:"last_conflict_count"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// MetricsService wraps the Prometheus registry used by the API and the engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	engineDuration  *prometheus.HistogramVec
	engineRuns      *prometheus.CounterVec
	lessonsPlaced   *prometheus.CounterVec
	unassigned      *prometheus.GaugeVec
	swaps           prometheus.Counter
	conflicts       prometheus.Gauge

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	engineRunCount       uint64
	engineFailureCount   uint64
	placedCount          uint64
	unassignedCount      uint64
	lastConflicts        int64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	engineDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_run_duration_seconds",
		Help:    "Duration of generator and optimizer runs",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	}, []string{"operation"})

	engineRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_runs_total",
		Help: "Generator and optimizer runs by outcome",
	}, []string{"operation", "outcome"})

	lessonsPlaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_lessons_placed_total",
		Help: "Lessons placed by the engine",
	}, []string{"operation"})

	unassigned := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "timetable_unassigned_lessons",
		Help: "Unassigned lessons left by the latest run of each group",
	}, []string{"group"})

	swaps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_swaps_total",
		Help: "Blocks relocated by the optimizer to admit a pending lesson",
	})

	conflicts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_conflicts",
		Help: "Conflicting cells found by the latest scan",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		dbQueryDuration,
		engineDuration, engineRuns, lessonsPlaced, unassigned, swaps, conflicts,
		goroutines,
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
		engineDuration:  engineDuration,
		engineRuns:      engineRuns,
		lessonsPlaced:   lessonsPlaced,
		unassigned:      unassigned,
		swaps:           swaps,
		conflicts:       conflicts,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveEngineRun records one generator or optimizer run of a group.
func (m *MetricsService) ObserveEngineRun(operation, groupKey string, placed, unassigned, swapped int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.engineDuration.WithLabelValues(operation).Observe(duration.Seconds())
	atomic.AddUint64(&m.engineRunCount, 1)
	if err != nil {
		m.engineRuns.WithLabelValues(operation, "failed").Inc()
		atomic.AddUint64(&m.engineFailureCount, 1)
		return
	}
	m.engineRuns.WithLabelValues(operation, "ok").Inc()
	m.lessonsPlaced.WithLabelValues(operation).Add(float64(placed))
	m.unassigned.WithLabelValues(groupKey).Set(float64(unassigned))
	m.swaps.Add(float64(swapped))
	atomic.AddUint64(&m.placedCount, uint64(placed))
	atomic.AddUint64(&m.unassignedCount, uint64(unassigned))
}

// SetConflictCount publishes the size of the latest conflict scan.
func (m *MetricsService) SetConflictCount(n int) {
	if m == nil {
		return
	}
	m.conflicts.Set(float64(n))
	atomic.StoreInt64(&m.lastConflicts, int64(n))
}

// Snapshot returns aggregated counters for the summary endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if hits+misses > 0 {
		cacheRatio = float64(hits) / float64(hits+misses)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		EngineRuns:               atomic.LoadUint64(&m.engineRunCount),
		EngineFailures:           atomic.LoadUint64(&m.engineFailureCount),
		LessonsPlaced:            atomic.LoadUint64(&m.placedCount),
		LessonsUnassigned:        atomic.LoadUint64(&m.unassignedCount),
		LastConflictCount:        atomic.LoadInt64(&m.lastConflicts),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
