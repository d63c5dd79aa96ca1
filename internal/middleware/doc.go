// Package middleware provides the HTTP middleware chain for the multires
// server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with cardinality-bounded path labels
//   - Configurable filtering for derived-image traffic and health checks
package middleware
