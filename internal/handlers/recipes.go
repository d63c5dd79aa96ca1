package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"multires/internal/database"
	"multires/internal/logging"
)

// ListRecipes returns recipes, optionally filtered by namespace and the
// automatic flag.
func (h *Handlers) ListRecipes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	namespace := r.URL.Query().Get("namespace")
	automaticOnly := r.URL.Query().Get("automatic") == "true"

	recipes, err := h.db.ListRecipes(ctx, namespace, automaticOnly)
	if err != nil {
		logging.Error("Failed to list recipes: %v", err)
		writeJSONError(w, "failed to list recipes", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"recipes": recipes,
		"count":   len(recipes),
	})
}

// CreateRecipe inserts a new recipe. Title and namespace together must be
// unique; quality, dimensions and mode fields are validated before insert.
func (h *Handlers) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var recipe database.Recipe
	if err := json.NewDecoder(r.Body).Decode(&recipe); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := recipe.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.db.CreateRecipe(ctx, &recipe); err != nil {
		if errors.Is(err, database.ErrRecipeExists) {
			writeJSONError(w, "a recipe with this title already exists in the namespace", http.StatusConflict)
			return
		}
		logging.Error("Failed to create recipe %s/%s: %v", recipe.Namespace, recipe.Title, err)
		writeJSONError(w, "failed to create recipe", http.StatusInternalServerError)
		return
	}

	logging.Info("Created recipe %s/%s (id %d)", recipe.Namespace, recipe.Title, recipe.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, recipe)
}

// GetRecipe returns a single recipe by ID.
func (h *Handlers) GetRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := recipeID(r)
	if err != nil {
		writeJSONError(w, "invalid recipe id", http.StatusBadRequest)
		return
	}

	recipe, err := h.db.GetRecipe(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			writeJSONError(w, "recipe not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to get recipe %d: %v", id, err)
		writeJSONError(w, "failed to get recipe", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, recipe)
}

// UpdateRecipe replaces a recipe's fields. Existing variants keep their
// derived files; changed render settings only affect variants created
// after the update.
func (h *Handlers) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := recipeID(r)
	if err != nil {
		writeJSONError(w, "invalid recipe id", http.StatusBadRequest)
		return
	}

	var recipe database.Recipe
	if err := json.NewDecoder(r.Body).Decode(&recipe); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	recipe.ID = id

	if err := recipe.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.db.UpdateRecipe(ctx, &recipe); err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			writeJSONError(w, "recipe not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, database.ErrRecipeExists) {
			writeJSONError(w, "a recipe with this title already exists in the namespace", http.StatusConflict)
			return
		}
		logging.Error("Failed to update recipe %d: %v", id, err)
		writeJSONError(w, "failed to update recipe", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, recipe)
}

// DeleteRecipe removes a recipe. Its variant rows go with it through the
// foreign key cascade; derived files on disk are left for external cleanup.
func (h *Handlers) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := recipeID(r)
	if err != nil {
		writeJSONError(w, "invalid recipe id", http.StatusBadRequest)
		return
	}

	if err := h.db.DeleteRecipe(ctx, id); err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			writeJSONError(w, "recipe not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to delete recipe %d: %v", id, err)
		writeJSONError(w, "failed to delete recipe", http.StatusInternalServerError)
		return
	}

	logging.Info("Deleted recipe %d", id)
	w.WriteHeader(http.StatusNoContent)
}

func recipeID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}
