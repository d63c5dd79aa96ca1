package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"multires/internal/database"
	"multires/internal/logging"
)

// maxUploadSize caps source uploads at 64 MiB.
const maxUploadSize = 64 << 20

var allowedSourceExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// VariantInfo is a variant together with its recipe and resolved URL, the
// shape the admin UI consumes.
type VariantInfo struct {
	*database.Variant
	Recipe string `json:"recipe"`
	URL    string `json:"url"`
}

// UploadResponse describes a stored source and its materialized variants.
type UploadResponse struct {
	Source   string        `json:"source"`
	URL      string        `json:"url"`
	Variants []VariantInfo `json:"variants"`
}

// UploadSource stores a source image and materializes a pending variant for
// every automatic recipe in the namespace. Nothing is rendered here; the
// variants fill in lazily as their URLs get fetched.
func (h *Handlers) UploadSource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSONError(w, "invalid upload", http.StatusBadRequest)
		return
	}

	namespace := r.FormValue("namespace")
	if namespace == "" {
		writeJSONError(w, "namespace is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedSourceExtensions[ext] {
		writeJSONError(w, "unsupported file type", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	// A colliding name gets a fresh path rather than overwriting: the old
	// file's processed variants would otherwise keep serving stale images.
	source := h.svc.Files().UniqueSourcePath(namespace, header.Filename)
	if err := h.svc.Files().Save(source, data); err != nil {
		logging.Error("Failed to store source %s: %v", source, err)
		writeJSONError(w, "failed to store source", http.StatusInternalServerError)
		return
	}

	field := h.svc.Field(namespace, source)
	variants, recipes, err := field.AllVariants(ctx)
	if err != nil {
		logging.Error("Failed to materialize variants for %s: %v", source, err)
		writeJSONError(w, "failed to create variants", http.StatusInternalServerError)
		return
	}

	infos := make([]VariantInfo, len(variants))
	for i, v := range variants {
		infos[i] = VariantInfo{
			Variant: v,
			Recipe:  recipes[i].Title,
			URL:     h.resolver.URL(recipes[i], v),
		}
	}

	logging.Info("Stored source %s (%d bytes, %d automatic variants)", source, len(data), len(variants))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, UploadResponse{
		Source:   source,
		URL:      h.svc.Files().URL(source),
		Variants: infos,
	})
}

// ListSourceVariants returns every variant of one source within a
// namespace, with resolved URLs.
func (h *Handlers) ListSourceVariants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	source := mux.Vars(r)["source"]
	namespace := r.URL.Query().Get("namespace")
	if namespace == "" {
		writeJSONError(w, "namespace is required", http.StatusBadRequest)
		return
	}

	variants, err := h.db.ListVariantsBySource(ctx, source, namespace)
	if err != nil {
		logging.Error("Failed to list variants for %s: %v", source, err)
		writeJSONError(w, "failed to list variants", http.StatusInternalServerError)
		return
	}

	infos := make([]VariantInfo, 0, len(variants))
	for _, v := range variants {
		recipe, err := h.db.GetRecipe(ctx, v.RecipeID)
		if err != nil {
			if errors.Is(err, database.ErrRecipeNotFound) {
				continue
			}
			logging.Error("Failed to load recipe %d: %v", v.RecipeID, err)
			writeJSONError(w, "failed to list variants", http.StatusInternalServerError)
			return
		}
		infos = append(infos, VariantInfo{
			Variant: v,
			Recipe:  recipe.Title,
			URL:     h.resolver.URL(recipe, v),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"source":   source,
		"variants": infos,
		"count":    len(infos),
	})
}
