package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Batch run metrics
	BatchRunsTotal    *prometheus.CounterVec
	BatchRunDuration  prometheus.Histogram
	TargetsInFlight   prometheus.Gauge

	// Scraper metrics
	AdsScrapedTotal  *prometheus.CounterVec
	AdsNewTotal      *prometheus.CounterVec
	AdsUpdatedTotal  *prometheus.CounterVec
	TargetErrorsTotal *prometheus.CounterVec
	ScrapeDuration   *prometheus.HistogramVec

	// Platform API metrics
	PlatformAPICallsTotal   *prometheus.CounterVec
	PlatformAPICallDuration *prometheus.HistogramVec
	PlatformRateLimitHits   *prometheus.CounterVec

	// Database metrics
	DBQueryDuration   *prometheus.HistogramVec
	DBConnectionsOpen prometheus.Gauge
	DBConnectionsIdle prometheus.Gauge

	// Cache metrics
	SerpAPICacheHits   prometheus.Counter
	SerpAPICacheMisses prometheus.Counter
}

var (
	defaultMetrics *Metrics
	namespace      = "collector"
)

// Init initializes the metrics
func Init() *Metrics {
	defaultMetrics = &Metrics{
		BatchRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_runs_total",
				Help:      "Total number of batch runs, by terminal status",
			},
			[]string{"status", "trigger_type"},
		),
		BatchRunDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_run_duration_seconds",
				Help:      "Batch run wall-clock duration in seconds",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
		),
		TargetsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "targets_in_flight",
				Help:      "Current number of scrape targets being processed",
			},
		),
		AdsScrapedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ads_scraped_total",
				Help:      "Total number of ads scraped across all batches",
			},
			[]string{"platform"},
		),
		AdsNewTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ads_new_total",
				Help:      "Total number of newly inserted ads",
			},
			[]string{"platform"},
		),
		AdsUpdatedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ads_updated_total",
				Help:      "Total number of ads updated on conflict",
			},
			[]string{"platform"},
		),
		TargetErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "target_errors_total",
				Help:      "Total number of target-fatal errors",
			},
			[]string{"platform"},
		),
		ScrapeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scrape_duration_seconds",
				Help:      "Per-target scrape duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"platform"},
		),
		PlatformAPICallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "platform_api_calls_total",
				Help:      "Total number of platform API calls",
			},
			[]string{"platform", "endpoint", "status"},
		),
		PlatformAPICallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "platform_api_call_duration_seconds",
				Help:      "Platform API call duration in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"platform", "endpoint"},
		),
		PlatformRateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "platform_rate_limit_hits_total",
				Help:      "Total number of rate limit hits",
			},
			[]string{"platform"},
		),
		DBQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Database query duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "table"},
		),
		DBConnectionsOpen: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections_open",
				Help:      "Number of open database connections",
			},
		),
		DBConnectionsIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections_idle",
				Help:      "Number of idle database connections",
			},
		),
		SerpAPICacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "serpapi_cache_hits_total",
				Help:      "Total number of SerpAPI cache hits",
			},
		),
		SerpAPICacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "serpapi_cache_misses_total",
				Help:      "Total number of SerpAPI cache misses",
			},
		),
	}

	return defaultMetrics
}

// Default returns the default metrics instance
func Default() *Metrics {
	if defaultMetrics == nil {
		Init()
	}
	return defaultMetrics
}

// RecordBatchRun records a finished batch run.
func (m *Metrics) RecordBatchRun(status, triggerType string, duration time.Duration) {
	m.BatchRunsTotal.WithLabelValues(status, triggerType).Inc()
	m.BatchRunDuration.Observe(duration.Seconds())
}

// RecordScrape records a finished per-target scrape.
func (m *Metrics) RecordScrape(platform string, scraped, newCount, updated int, duration time.Duration) {
	m.AdsScrapedTotal.WithLabelValues(platform).Add(float64(scraped))
	m.AdsNewTotal.WithLabelValues(platform).Add(float64(newCount))
	m.AdsUpdatedTotal.WithLabelValues(platform).Add(float64(updated))
	m.ScrapeDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// RecordTargetError records a target-fatal error.
func (m *Metrics) RecordTargetError(platform string) {
	m.TargetErrorsTotal.WithLabelValues(platform).Inc()
}

// RecordPlatformAPICall records a platform API call.
func (m *Metrics) RecordPlatformAPICall(platform, endpoint, status string, duration time.Duration) {
	m.PlatformAPICallsTotal.WithLabelValues(platform, endpoint, status).Inc()
	m.PlatformAPICallDuration.WithLabelValues(platform, endpoint).Observe(duration.Seconds())
}

// RecordRateLimitHit records a rate limit hit.
func (m *Metrics) RecordRateLimitHit(platform string) {
	m.PlatformRateLimitHits.WithLabelValues(platform).Inc()
}

// RecordDBQuery records a database query.
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration) {
	m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// UpdateDBConnections updates database connection gauges.
func (m *Metrics) UpdateDBConnections(open, idle int) {
	m.DBConnectionsOpen.Set(float64(open))
	m.DBConnectionsIdle.Set(float64(idle))
}

// RecordCacheHit records a SerpAPI cache hit or miss.
func (m *Metrics) RecordCacheHit(hit bool) {
	if hit {
		m.SerpAPICacheHits.Inc()
	} else {
		m.SerpAPICacheMisses.Inc()
	}
}
