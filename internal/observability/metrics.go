package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

// Scrape outcome label values.
const (
	OutcomeSuccess          = "success"
	OutcomeProviderError    = "provider_error"
	OutcomeJobFailed        = "job_failed"
	OutcomeTimeout          = "timeout"
	OutcomeEmpty            = "empty"
	OutcomeInvalidData      = "invalid_data"
	OutcomePersistenceError = "persistence_error"
)

var (
	// ScrapeRunsTotal counts finished scrape pipelines by platform and outcome.
	ScrapeRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creatorpulse_scrape_runs_total",
		Help: "Total number of scrape pipeline runs by platform and outcome",
	}, []string{"platform", "outcome"})

	// ScrapeRunDuration records end-to-end scrape pipeline latency.
	ScrapeRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "creatorpulse_scrape_run_duration_seconds",
		Help:    "End-to-end scrape pipeline duration in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"platform"})

	// ProviderWaitDuration records how long runs spend polling the provider.
	ProviderWaitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "creatorpulse_provider_wait_seconds",
		Help:    "Time spent waiting for provider job completion in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"platform"})

	// ItemsSavedTotal counts newly persisted rows by platform and kind.
	ItemsSavedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creatorpulse_items_saved_total",
		Help: "Total number of newly persisted items by platform and kind",
	}, []string{"platform", "kind"})

	// RecordsSkippedTotal counts raw records dropped during normalization.
	RecordsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creatorpulse_records_skipped_total",
		Help: "Total number of raw records skipped during normalization",
	}, []string{"platform", "reason"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creatorpulse_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheRequestsTotal counts cache lookups by entity and result.
	CacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creatorpulse_cache_requests_total",
		Help: "Total number of cache lookups by entity and hit/miss result",
	}, []string{"entity", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "creatorpulse_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}

// ObserveScrapeRun records one finished pipeline with its outcome and duration.
func ObserveScrapeRun(platform, outcome string, start time.Time) {
	ScrapeRunsTotal.WithLabelValues(platform, outcome).Inc()
	ScrapeRunDuration.WithLabelValues(platform).Observe(time.Since(start).Seconds())
}
