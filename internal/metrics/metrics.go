package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics holds all Prometheus metrics
type PrometheusMetrics struct {
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Cache metrics
	CacheLookups   *prometheus.CounterVec
	CacheEvictions *prometheus.CounterVec
	CacheEntries   *prometheus.GaugeVec

	// Schema metrics
	SchemaRegenerations  *prometheus.CounterVec
	SchemaGenerationTime prometheus.Histogram
	StalenessChecks      *prometheus.CounterVec

	// Database metrics
	DatabaseCalls        *prometheus.CounterVec
	DatabaseCallDuration *prometheus.HistogramVec

	// MCP tool metrics
	ToolCalls *prometheus.CounterVec
}

var (
	metrics  *PrometheusMetrics
	initOnce sync.Once
)

// InitMetrics registers all collectors with the default registry. Safe to call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		metrics = &PrometheusMetrics{
			HttpRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mysql_mcp_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "endpoint", "status"},
			),
			HttpRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "mysql_mcp_http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "endpoint"},
			),

			CacheLookups: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mysql_mcp_cache_lookups_total",
					Help: "Cache lookups by cache and result (hit/miss)",
				},
				[]string{"cache", "result"},
			),
			CacheEvictions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mysql_mcp_cache_evictions_total",
					Help: "Entries evicted by capacity pressure",
				},
				[]string{"cache"},
			),
			CacheEntries: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "mysql_mcp_cache_entries",
					Help: "Entries currently stored, including lazily expired ones",
				},
				[]string{"cache"},
			),

			SchemaRegenerations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mysql_mcp_schema_regenerations_total",
					Help: "Schema regenerations by trigger and status",
				},
				[]string{"trigger", "status"},
			),
			SchemaGenerationTime: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "mysql_mcp_schema_generation_seconds",
					Help:    "Time spent generating the schema document",
					Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
				},
			),
			StalenessChecks: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mysql_mcp_staleness_checks_total",
					Help: "Staleness checks by outcome (fresh/stale)",
				},
				[]string{"outcome"},
			),

			DatabaseCalls: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mysql_mcp_database_calls_total",
					Help: "Statements executed against the database",
				},
				[]string{"status"},
			),
			DatabaseCallDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "mysql_mcp_database_call_duration_seconds",
					Help:    "Statement execution time in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"status"},
			),

			ToolCalls: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mysql_mcp_tool_calls_total",
					Help: "MCP tool and resource invocations",
				},
				[]string{"tool", "status"},
			),
		}
	})
}

// GetMetrics returns the initialized metrics
func GetMetrics() *PrometheusMetrics {
	return metrics
}

// RecordHTTPRequest records one served HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	if metrics == nil {
		return
	}

	metrics.HttpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	metrics.HttpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordCacheLookup records a hit or miss against the named cache
func RecordCacheLookup(cache string, hit bool) {
	if metrics == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.CacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordCacheEviction records a capacity eviction
func RecordCacheEviction(cache string) {
	if metrics == nil {
		return
	}

	metrics.CacheEvictions.WithLabelValues(cache).Inc()
}

// UpdateCacheEntries sets the current entry count of a cache
func UpdateCacheEntries(cache string, entries int) {
	if metrics == nil {
		return
	}

	metrics.CacheEntries.WithLabelValues(cache).Set(float64(entries))
}

// RecordSchemaRegeneration records one schema generation attempt
func RecordSchemaRegeneration(trigger, status string, duration time.Duration) {
	if metrics == nil {
		return
	}

	metrics.SchemaRegenerations.WithLabelValues(trigger, status).Inc()
	if status == "success" {
		metrics.SchemaGenerationTime.Observe(duration.Seconds())
	}
}

// RecordStalenessCheck records the detector's verdict
func RecordStalenessCheck(stale bool) {
	if metrics == nil {
		return
	}

	outcome := "fresh"
	if stale {
		outcome = "stale"
	}
	metrics.StalenessChecks.WithLabelValues(outcome).Inc()
}

// RecordDatabaseCall records a statement round-trip
func RecordDatabaseCall(status string, duration time.Duration) {
	if metrics == nil {
		return
	}

	metrics.DatabaseCalls.WithLabelValues(status).Inc()
	metrics.DatabaseCallDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordToolCall records an MCP tool or resource invocation
func RecordToolCall(tool string, err error) {
	if metrics == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ToolCalls.WithLabelValues(tool, status).Inc()
}
