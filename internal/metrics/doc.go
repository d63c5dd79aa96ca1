// Package metrics provides Prometheus instrumentation for the multires
// service.
//
// All metrics are prefixed with "multires_" to avoid naming collisions with
// other applications. Metrics are registered with the default Prometheus
// registry via promauto; expose them by mounting promhttp.Handler() on the
// metrics endpoint.
//
// # Metric Categories
//
//   - HTTP: request counts, durations, and in-flight gauge
//   - Database: query counts and durations per operation, open connections
//   - Render: variant render attempts by file type and status, durations,
//     in-progress gauge, waits on renders claimed by concurrent requests,
//     and resolutions served from already processed variants
//   - Authentication: login attempts and active admin sessions
//   - Application: build information
//
// # Recording Metrics
//
// Import this package and use the exported metric variables:
//
//	metrics.RendersTotal.WithLabelValues("jpeg", "success").Inc()
//	metrics.RenderDuration.WithLabelValues("jpeg").Observe(0.123)
package metrics
