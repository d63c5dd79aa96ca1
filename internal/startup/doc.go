// Package startup handles application configuration loading and structured
// startup/shutdown logging for the multires service.
//
// Configuration is read from environment variables:
//   - MEDIA_DIR: root directory for source and derived images
//   - DATABASE_DIR: directory holding the SQLite database
//   - PORT / METRICS_PORT: HTTP listener ports
//   - MEDIA_URL: public URL prefix under which MEDIA_DIR is served
//   - RENDER_WAIT: how long a request waits on a render claimed by another
//   - LOG_STATIC_FILES / LOG_HEALTH_CHECKS / METRICS_ENABLED: feature toggles
//
// LoadConfig validates directories up front so that later components can
// assume their paths exist and are writable.
package startup
