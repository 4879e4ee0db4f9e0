package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/signcast/server/internal/middleware"
	"github.com/signcast/server/internal/models"
	"github.com/signcast/server/internal/observability"
	"github.com/signcast/server/internal/services"
)

// SyncHandler handles the screen-facing sync endpoints
type SyncHandler struct {
	assetSync   *services.AssetSyncService
	syncService *services.ScreenSyncService
	metrics     *observability.FleetMetrics
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(assetSync *services.AssetSyncService, syncService *services.ScreenSyncService, metrics *observability.FleetMetrics) *SyncHandler {
	return &SyncHandler{
		assetSync:   assetSync,
		syncService: syncService,
		metrics:     metrics,
	}
}

// ReportStatus applies a screen's download progress report for one asset
// @Summary Report asset sync status
// @Description Report download progress for one asset on the calling screen
// @Tags sync
// @Accept json
// @Produce json
// @Param request body models.UpdateSyncStatusRequest true "Status report"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} models.ErrorResponse
// @Security ScreenAuth
// @Router /api/sync/status [post]
func (h *SyncHandler) ReportStatus(w http.ResponseWriter, r *http.Request) {
	screen := middleware.GetScreenFromContext(r.Context())
	if screen == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.UpdateSyncStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.AssetID == "" {
		http.Error(w, "Asset id is required", http.StatusBadRequest)
		return
	}

	if err := h.assetSync.ReportStatus(r.Context(), screen.ID, req); err != nil {
		http.Error(w, "Failed to record status", http.StatusInternalServerError)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSyncReport(r.Context(), req.SyncState, true)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// GetStatuses returns the calling screen's per-asset sync status
// @Summary Get sync status
// @Description List per-asset sync status for the calling screen
// @Tags sync
// @Produce json
// @Success 200 {array} models.SyncStatusItem
// @Security ScreenAuth
// @Router /api/sync/status [get]
func (h *SyncHandler) GetStatuses(w http.ResponseWriter, r *http.Request) {
	screen := middleware.GetScreenFromContext(r.Context())
	if screen == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	statuses, err := h.assetSync.GetStatuses(r.Context(), screen.ID)
	if err != nil {
		http.Error(w, "Failed to load sync status", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statuses)
}

// GetManifest returns the download manifest for the calling screen
// @Summary Get sync manifest
// @Description List the campaigns and assets the calling screen must have locally
// @Tags sync
// @Produce json
// @Success 200 {array} models.CampaignSyncInfo
// @Security ScreenAuth
// @Router /api/sync/campaigns [get]
func (h *SyncHandler) GetManifest(w http.ResponseWriter, r *http.Request) {
	screen := middleware.GetScreenFromContext(r.Context())
	if screen == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	manifest, err := h.assetSync.GetCampaignsToSync(r.Context(), screen.ID)
	if err != nil {
		http.Error(w, "Failed to build manifest", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(manifest)
}

// GetConfiguration returns the calling screen's current configuration.
// Screens poll this after a reconnect instead of waiting for the next push.
// @Summary Get screen configuration
// @Description Get the current desired configuration for the calling screen
// @Tags sync
// @Produce json
// @Success 200 {object} models.ScreenConfiguration
// @Security ScreenAuth
// @Router /api/sync/configuration [get]
func (h *SyncHandler) GetConfiguration(w http.ResponseWriter, r *http.Request) {
	screen := middleware.GetScreenFromContext(r.Context())
	if screen == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	config, err := h.syncService.GetConfiguration(r.Context(), screen.ID)
	if err != nil {
		http.Error(w, "Failed to load configuration", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(config)
}
