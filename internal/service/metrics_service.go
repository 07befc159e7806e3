package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/clinic-agenda-api/internal/availability"
	"github.com/noah-isme/clinic-agenda-api/internal/dto"
)

// MetricsService owns the Prometheus registry and keeps cheap counters for the admin summary.
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
	snapshotLoad    *prometheus.HistogramVec
	slotStates      *prometheus.CounterVec
	rateLimited     prometheus.Counter
	auditDropped    prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	snapshotCount        uint64
	snapshotDurationNs   uint64
	rateLimitedCount     uint64
	auditDroppedCount    uint64

	slotMu     sync.Mutex
	slotCounts map[availability.SlotState]uint64
}

// NewMetricsService registers the collectors.
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

	snapshotLoad := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agenda_snapshot_load_seconds",
		Help:    "Duration of full agenda snapshot loads",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	slotStates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "availability_slot_resolutions_total",
		Help: "Slots resolved by resulting state",
	}, []string{"state"})

	rateLimited := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_login_rate_limited_total",
		Help: "Login attempts rejected by the rate limiter",
	})

	auditDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audit_entries_dropped_total",
		Help: "Audit entries that could not be queued",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		dbQueryDuration, snapshotLoad, slotStates, rateLimited, auditDropped, goroutines)

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
		snapshotLoad:    snapshotLoad,
		slotStates:      slotStates,
		rateLimited:     rateLimited,
		auditDropped:    auditDropped,
		slotCounts:      make(map[availability.SlotState]uint64),
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

// RecordCacheOperation records a cache lookup and refreshes the hit ratio.
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

// ObserveDBQuery records timing for a labelled query.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveSnapshotLoad records a full agenda load.
func (m *MetricsService) ObserveSnapshotLoad(duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.snapshotLoad.WithLabelValues(result).Observe(duration.Seconds())
	atomic.AddUint64(&m.snapshotCount, 1)
	atomic.AddUint64(&m.snapshotDurationNs, uint64(duration.Nanoseconds()))
}

// RecordSlotState counts a resolved slot.
func (m *MetricsService) RecordSlotState(state availability.SlotState) {
	if m == nil {
		return
	}
	m.slotStates.WithLabelValues(string(state)).Inc()
	m.slotMu.Lock()
	m.slotCounts[state]++
	m.slotMu.Unlock()
}

// RecordRateLimited counts a rejected login attempt.
func (m *MetricsService) RecordRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
	atomic.AddUint64(&m.rateLimitedCount, 1)
}

// RecordAuditDropped counts an audit entry that never reached storage.
func (m *MetricsService) RecordAuditDropped() {
	if m == nil {
		return
	}
	m.auditDropped.Inc()
	atomic.AddUint64(&m.auditDroppedCount, 1)
}

// Snapshot returns aggregated counters for the admin summary endpoint.
func (m *MetricsService) Snapshot() dto.SystemMetrics {
	if m == nil {
		return dto.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	loads := atomic.LoadUint64(&m.snapshotCount)
	loadDuration := atomic.LoadUint64(&m.snapshotDurationNs)

	out := dto.SystemMetrics{
		Requests:        requests,
		SnapshotLoads:   loads,
		RateLimited:     atomic.LoadUint64(&m.rateLimitedCount),
		AuditDropped:    atomic.LoadUint64(&m.auditDroppedCount),
		SlotResolutions: map[string]uint64{},
		Goroutines:      runtime.NumGoroutine(),
	}
	if hits+misses > 0 {
		out.CacheHitRatio = float64(hits) / float64(hits+misses)
	}
	if requests > 0 {
		out.AvgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	if loads > 0 {
		out.AvgSnapshotMs = float64(loadDuration) / float64(loads) / float64(time.Millisecond)
	}

	m.slotMu.Lock()
	for state, n := range m.slotCounts {
		out.SlotResolutions[string(state)] = n
	}
	m.slotMu.Unlock()
	return out
}
