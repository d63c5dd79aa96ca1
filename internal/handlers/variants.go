package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"multires/internal/database"
	"multires/internal/logging"
)

// GetVariant returns one variant by UUID, with its recipe and resolved URL.
func (h *Handlers) GetVariant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	uuid := mux.Vars(r)["uuid"]
	variant, err := h.db.GetVariantByUUID(ctx, uuid)
	if err != nil {
		if errors.Is(err, database.ErrVariantNotFound) {
			writeJSONError(w, "variant not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to get variant %s: %v", uuid, err)
		writeJSONError(w, "failed to get variant", http.StatusInternalServerError)
		return
	}

	recipe, err := h.db.GetRecipe(ctx, variant.RecipeID)
	if err != nil {
		logging.Error("Failed to load recipe %d: %v", variant.RecipeID, err)
		writeJSONError(w, "failed to get variant", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, VariantInfo{
		Variant: variant,
		Recipe:  recipe.Title,
		URL:     h.resolver.URL(recipe, variant),
	})
}

// GetStats returns row counts for recipes and variants.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.db.GetVariantStats(ctx)
	if err != nil {
		logging.Error("Failed to get stats: %v", err)
		writeJSONError(w, "failed to get stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats)
}
