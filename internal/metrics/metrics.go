package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multires_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "multires_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "multires_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multires_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "multires_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "multires_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Render metrics
var (
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multires_renders_total",
			Help: "Total number of variant render attempts",
		},
		[]string{"file_type", "status"},
	)

	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "multires_render_duration_seconds",
			Help:    "Variant render duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"file_type"},
	)

	RendersInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "multires_renders_in_progress",
			Help: "Number of variant renders currently running",
		},
	)

	RenderWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "multires_render_waits_total",
			Help: "Total number of requests that waited on a render claimed by another request",
		},
	)

	VariantCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "multires_variant_cache_hits_total",
			Help: "Total number of lazy URL resolutions served from an already processed variant",
		},
	)
)

// Authentication metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multires_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "multires_active_sessions",
			Help: "Number of active admin sessions",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "multires_app_info",
			Help: "Application build information",
		},
		[]string{"version", "commit", "go_version"},
	)
)
