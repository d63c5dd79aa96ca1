package handlers

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"multires/internal/database"
	"multires/internal/logging"
	"multires/internal/multires"
)

// ProcessImage is the lazy processing endpoint. A request here means some
// client followed a URL for a variant that had not been rendered when the
// URL was generated. The variant is rendered if still needed, then the
// client is redirected to the derived file so every later fetch is plain
// static file traffic.
func (h *Handlers) ProcessImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	namespace := vars["namespace"]
	title := vars["recipe"]
	source := vars["source"]

	field := h.svc.Field(namespace, source)
	variant, recipe, err := field.VariantByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			writeJSONError(w, "recipe not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to look up variant %s/%s for %s: %v", namespace, title, source, err)
		writeJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}

	rendered, err := h.svc.Render(ctx, recipe, variant)
	if err != nil {
		h.writeRenderError(w, source, err)
		return
	}

	// The derived file never changes for a given variant, so the redirect
	// target is safe to follow again, but the redirect itself must not be
	// cached: permanently caching it would pin clients to this endpoint's
	// latency even after the file exists.
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, h.resolver.URL(recipe, rendered), http.StatusFound)
}

// writeRenderError maps render failures onto HTTP statuses.
func (h *Handlers) writeRenderError(w http.ResponseWriter, source string, err error) {
	var storageErr *multires.StorageError
	var processingErr *multires.ProcessingError

	switch {
	case errors.Is(err, multires.ErrRenderTimeout):
		w.Header().Set("Retry-After", "5")
		writeJSONError(w, "variant is still being rendered", http.StatusServiceUnavailable)
	case errors.As(err, &storageErr) && errors.Is(err, fs.ErrNotExist):
		writeJSONError(w, "source image not found", http.StatusNotFound)
	case errors.As(err, &storageErr):
		logging.Error("Storage failure rendering %s: %v", source, err)
		writeJSONError(w, "storage failure", http.StatusInternalServerError)
	case errors.As(err, &processingErr):
		logging.Error("Processing failure rendering %s: %v", source, err)
		writeJSONError(w, "source image could not be processed", http.StatusInternalServerError)
	default:
		logging.Error("Failed to render %s: %v", source, err)
		writeJSONError(w, "internal error", http.StatusInternalServerError)
	}
}
