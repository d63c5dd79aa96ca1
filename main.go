package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"multires/internal/database"
	"multires/internal/handlers"
	"multires/internal/logging"
	"multires/internal/metrics"
	"multires/internal/middleware"
	"multires/internal/multires"
	"multires/internal/startup"
	"multires/internal/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)

	// Clean up expired sessions periodically
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			if removed, err := db.CleanExpiredSessions(context.Background()); err != nil {
				logging.Error("Session cleanup failed: %v", err)
			} else if removed > 0 {
				logging.Debug("Cleaned up %d expired sessions", removed)
			}
			if active, err := db.CountActiveSessions(context.Background()); err == nil {
				metrics.ActiveSessions.Set(float64(active))
			}
			db.UpdateDBMetrics()
		}
	}()

	files := storage.New(config.MediaDir, config.MediaURL)
	svc := multires.NewService(db, files, config.RenderWait)
	h := handlers.New(svc, config)

	router := setupRouter(h, config)
	startup.LogHTTPRoutes(router)

	authedRouter := h.AuthMiddleware(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogDerivedFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(authedRouter)

	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
		go serveMetrics(config.MetricsPort)
	}

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv)

	startup.LogServerStarted(config.Port, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()

	h.RegisterRoutes(r)

	// Derived files and sources are plain static file traffic. In larger
	// deployments this prefix is typically served by a CDN or web server
	// in front; serving it here keeps single-binary setups working.
	r.PathPrefix(config.MediaURL + "/").Handler(
		http.StripPrefix(config.MediaURL+"/", http.FileServer(http.Dir(config.MediaDir))))

	return r
}

// serveMetrics exposes Prometheus metrics on the dedicated metrics port so
// scrapes never contend with image traffic.
func serveMetrics(port string) {
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())

	logging.Info("Metrics server listening on :%s", port)
	if err := http.ListenAndServe(":"+port, m); err != nil {
		logging.Error("Metrics server error: %v", err)
	}
}

func handleShutdown(srv *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
