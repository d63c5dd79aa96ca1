package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes attaches every handler to the router. Middleware (logging,
// metrics, authentication) is layered on by the caller so tests can hit
// handlers directly.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	// Lazy processing endpoint; the source segment is a full storage path
	r.HandleFunc("/multires/{namespace}/{recipe}/{source:.+}", h.ProcessImage).Methods(http.MethodGet)

	// Health probes and build info
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Authentication
	api.HandleFunc("/auth/setup-required", h.CheckSetupRequired).Methods(http.MethodGet)
	api.HandleFunc("/auth/setup", h.Setup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/check", h.CheckAuth).Methods(http.MethodGet)

	// Recipe administration
	api.HandleFunc("/recipes", h.ListRecipes).Methods(http.MethodGet)
	api.HandleFunc("/recipes", h.CreateRecipe).Methods(http.MethodPost)
	api.HandleFunc("/recipes/{id:[0-9]+}", h.GetRecipe).Methods(http.MethodGet)
	api.HandleFunc("/recipes/{id:[0-9]+}", h.UpdateRecipe).Methods(http.MethodPut)
	api.HandleFunc("/recipes/{id:[0-9]+}", h.DeleteRecipe).Methods(http.MethodDelete)

	// Sources and variants
	api.HandleFunc("/sources", h.UploadSource).Methods(http.MethodPost)
	api.HandleFunc("/sources/{source:.+}/variants", h.ListSourceVariants).Methods(http.MethodGet)
	api.HandleFunc("/variants/{uuid}", h.GetVariant).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)
}
