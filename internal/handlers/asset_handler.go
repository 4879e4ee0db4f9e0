package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/signcast/server/internal/models"
	"github.com/signcast/server/internal/repository"
)

// AssetHandler serves asset metadata and file content. Screens download
// asset files from here with their bearer token; Website assets have no
// file body and are rendered live by the player.
type AssetHandler struct {
	assetRepo   repository.AssetRepo
	storagePath string
}

// NewAssetHandler creates a new AssetHandler
func NewAssetHandler(assetRepo repository.AssetRepo, storagePath string) *AssetHandler {
	return &AssetHandler{
		assetRepo:   assetRepo,
		storagePath: storagePath,
	}
}

// ListAssets returns all assets
// @Summary List assets
// @Description List all assets
// @Tags assets
// @Produce json
// @Success 200 {array} models.Asset
// @Security AdminKeyAuth
// @Router /api/assets [get]
func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.assetRepo.GetAll(r.Context())
	if err != nil {
		http.Error(w, "Failed to list assets", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(assets)
}

// DownloadAsset serves the file content for one asset
// @Summary Download asset
// @Description Download the file content for an asset (supports range requests)
// @Tags assets
// @Produce octet-stream
// @Param id path string true "Asset ID"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse
// @Security ScreenAuth
// @Router /api/assets/{id}/download [get]
func (h *AssetHandler) DownloadAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	asset, err := h.assetRepo.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to load asset", http.StatusInternalServerError)
		return
	}
	if asset == nil {
		http.Error(w, "Asset not found", http.StatusNotFound)
		return
	}

	if asset.Type == models.AssetWebsite {
		http.Error(w, "Website assets have no file content", http.StatusBadRequest)
		return
	}

	fullPath, ok := h.resolvePath(asset.Source)
	if !ok {
		http.Error(w, "Asset not found", http.StatusNotFound)
		return
	}

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		http.Error(w, "Asset file not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(fullPath)+"\"")

	// Serve the file (supports range requests)
	http.ServeFile(w, r, fullPath)
}

// resolvePath maps an asset source to a path under the storage root and
// rejects anything that escapes it
func (h *AssetHandler) resolvePath(source string) (string, bool) {
	fullPath := filepath.Join(h.storagePath, filepath.FromSlash(source))
	rel, err := filepath.Rel(h.storagePath, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return fullPath, true
}
