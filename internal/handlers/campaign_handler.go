package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/signcast/server/internal/observability"
	"github.com/signcast/server/internal/repository"
	"github.com/signcast/server/internal/services"
)

// CampaignHandler handles the admin campaign endpoints. Assignment changes
// fan out a fresh push to every affected screen.
type CampaignHandler struct {
	campaignRepo repository.CampaignRepo
	syncService  *services.ScreenSyncService
	logger       *observability.Logger
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(campaignRepo repository.CampaignRepo, syncService *services.ScreenSyncService) *CampaignHandler {
	return &CampaignHandler{
		campaignRepo: campaignRepo,
		syncService:  syncService,
		logger:       observability.WithField("component", "campaigns"),
	}
}

// ListCampaigns returns all campaigns
// @Summary List campaigns
// @Description List all campaigns with their assets
// @Tags campaigns
// @Produce json
// @Success 200 {array} models.Campaign
// @Security AdminKeyAuth
// @Router /api/campaigns [get]
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.campaignRepo.GetAll(r.Context())
	if err != nil {
		http.Error(w, "Failed to list campaigns", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaigns)
}

// GetCampaign returns one campaign by id
// @Summary Get campaign
// @Description Get a single campaign with its assets
// @Tags campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.Campaign
// @Failure 404 {object} models.ErrorResponse
// @Security AdminKeyAuth
// @Router /api/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	campaign, err := h.campaignRepo.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to load campaign", http.StatusInternalServerError)
		return
	}
	if campaign == nil {
		http.Error(w, "Campaign not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

// AssignScreen assigns a campaign to a screen and pushes the new state
// @Summary Assign campaign to screen
// @Description Assign a campaign to a screen; the screen gets a fresh configuration push
// @Tags campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Param screenId path string true "Screen ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} models.ErrorResponse
// @Security AdminKeyAuth
// @Router /api/campaigns/{id}/screens/{screenId} [post]
func (h *CampaignHandler) AssignScreen(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")
	screenID := chi.URLParam(r, "screenId")

	campaign, err := h.campaignRepo.GetByID(r.Context(), campaignID)
	if err != nil {
		http.Error(w, "Failed to load campaign", http.StatusInternalServerError)
		return
	}
	if campaign == nil {
		http.Error(w, "Campaign not found", http.StatusNotFound)
		return
	}

	if err := h.campaignRepo.Assign(r.Context(), campaignID, screenID); err != nil {
		http.Error(w, "Failed to assign campaign", http.StatusInternalServerError)
		return
	}

	h.pushAsync([]string{screenID})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// UnassignScreen removes a campaign from a screen and pushes the new state
// @Summary Unassign campaign from screen
// @Description Remove a campaign from a screen; the screen gets a fresh configuration push
// @Tags campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Param screenId path string true "Screen ID"
// @Success 200 {object} map[string]bool
// @Security AdminKeyAuth
// @Router /api/campaigns/{id}/screens/{screenId} [delete]
func (h *CampaignHandler) UnassignScreen(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")
	screenID := chi.URLParam(r, "screenId")

	if err := h.campaignRepo.Unassign(r.Context(), campaignID, screenID); err != nil {
		http.Error(w, "Failed to unassign campaign", http.StatusInternalServerError)
		return
	}

	h.pushAsync([]string{screenID})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// PushCampaign re-pushes a campaign to every screen it is assigned to.
// Used after campaign content edits made outside this API.
// @Summary Push campaign
// @Description Push the campaign's current state to every assigned screen
// @Tags campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} map[string]int
// @Failure 404 {object} models.ErrorResponse
// @Security AdminKeyAuth
// @Router /api/campaigns/{id}/push [post]
func (h *CampaignHandler) PushCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	campaign, err := h.campaignRepo.GetByID(r.Context(), campaignID)
	if err != nil {
		http.Error(w, "Failed to load campaign", http.StatusInternalServerError)
		return
	}
	if campaign == nil {
		http.Error(w, "Campaign not found", http.StatusNotFound)
		return
	}

	screenIDs, err := h.campaignRepo.GetScreenIDsForCampaign(r.Context(), campaignID)
	if err != nil {
		http.Error(w, "Failed to resolve assigned screens", http.StatusInternalServerError)
		return
	}

	h.pushAsync(screenIDs)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"screens": len(screenIDs)})
}

// pushAsync pushes in the background so assignment responses do not wait on
// per-screen fan-out
func (h *CampaignHandler) pushAsync(screenIDs []string) {
	if len(screenIDs) == 0 {
		return
	}
	go h.syncService.SyncScreens(context.Background(), screenIDs)
}
