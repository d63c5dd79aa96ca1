package handlers

import (
	"net/http"
	"runtime"

	"multires/internal/logging"
	"multires/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`

	TotalRecipes      int `json:"totalRecipes"`
	TotalVariants     int `json:"totalVariants"`
	ProcessedVariants int `json:"processedVariants"`
	PendingVariants   int `json:"pendingVariants"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports service health, including variant counts. A failing
// database check degrades the status and returns 503.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	stats, err := h.db.GetVariantStats(ctx)
	if err != nil {
		logging.Error("Health check database query failed: %v", err)
		response.Status = statusDegraded
	} else {
		response.TotalRecipes = stats.TotalRecipes
		response.TotalVariants = stats.TotalVariants
		response.ProcessedVariants = stats.ProcessedVariants
		response.PendingVariants = stats.PendingVariants
	}

	w.Header().Set("Content-Type", "application/json")
	if response.Status != statusHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	writeJSON(w, response)
}

// LivenessCheck always returns 200 while the server is running.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// HEAD requests get headers only
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 once the database answers queries.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	w.Header().Set("Content-Type", "application/json")
	if _, err := h.db.GetVariantStats(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{"status": "not_ready"})
		return
	}

	writeJSON(w, map[string]string{"status": "ready"})
}
