package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/signcast/server/internal/models"
	"github.com/signcast/server/internal/services"
)

// ScreenHandler handles screen registration and the admin screen endpoints
type ScreenHandler struct {
	screenService *services.ScreenService
	assetSync     *services.AssetSyncService
	registry      *services.ConnectionRegistry
}

// NewScreenHandler creates a new ScreenHandler
func NewScreenHandler(screenService *services.ScreenService, assetSync *services.AssetSyncService, registry *services.ConnectionRegistry) *ScreenHandler {
	return &ScreenHandler{
		screenService: screenService,
		assetSync:     assetSync,
		registry:      registry,
	}
}

// Register self-registers a new screen in Pending state
// @Summary Register screen
// @Description Register a new screen awaiting admin approval
// @Tags screens
// @Accept json
// @Produce json
// @Param request body models.RegisterScreenRequest true "Screen info"
// @Success 200 {object} models.RegisterScreenResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/screens/register [post]
func (h *ScreenHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.screenService.Register(r.Context(), req)
	if err != nil {
		http.Error(w, "Failed to register screen", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListScreens returns a paginated screen listing
// @Summary List screens
// @Description List registered screens with optional status filter
// @Tags screens
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param pageSize query int false "Page size"
// @Param status query string false "Filter by approval status (Pending, Approved, Rejected)"
// @Param sortBy query string false "Sort field (name, location, status, lastseen)"
// @Success 200 {object} models.PagedScreensResponse
// @Security AdminKeyAuth
// @Router /api/screens [get]
func (h *ScreenHandler) ListScreens(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	var status *models.ApprovalStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, ok := models.ParseApprovalStatus(raw)
		if !ok {
			http.Error(w, "Invalid approval status", http.StatusBadRequest)
			return
		}
		status = &parsed
	}

	result, err := h.screenService.List(r.Context(), page, pageSize, status, r.URL.Query().Get("sortBy"))
	if err != nil {
		http.Error(w, "Failed to list screens", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// GetScreen returns one screen by id
// @Summary Get screen
// @Description Get a single screen by id
// @Tags screens
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} models.ScreenDetailsResponse
// @Failure 404 {object} models.ErrorResponse
// @Security AdminKeyAuth
// @Router /api/screens/{id} [get]
func (h *ScreenHandler) GetScreen(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	screen, err := h.screenService.Get(r.Context(), id)
	if err != nil {
		writeScreenError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(screen)
}

// UpdateScreen applies a partial update to a screen
// @Summary Update screen
// @Description Update a screen's name, description or location
// @Tags screens
// @Accept json
// @Produce json
// @Param id path string true "Screen ID"
// @Param request body models.UpdateScreenRequest true "Fields to update"
// @Success 200 {object} models.ScreenDetailsResponse
// @Failure 404 {object} models.ErrorResponse
// @Security AdminKeyAuth
// @Router /api/screens/{id} [put]
func (h *ScreenHandler) UpdateScreen(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	screen, err := h.screenService.Update(r.Context(), id, req)
	if err != nil {
		writeScreenError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(screen)
}

// ApproveScreen approves a pending screen and issues its bearer token
// @Summary Approve screen
// @Description Approve a pending screen; the response carries the one-time bearer token
// @Tags screens
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} models.ApproveScreenResponse
// @Failure 404 {object} models.ErrorResponse
// @Security AdminKeyAuth
// @Router /api/screens/{id}/approve [post]
func (h *ScreenHandler) ApproveScreen(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	resp, err := h.screenService.Approve(r.Context(), id)
	if err != nil {
		writeScreenError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// RejectScreen rejects a screen
// @Summary Reject screen
// @Description Reject a screen's registration
// @Tags screens
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} models.ScreenDetailsResponse
// @Failure 404 {object} models.ErrorResponse
// @Security AdminKeyAuth
// @Router /api/screens/{id}/reject [post]
func (h *ScreenHandler) RejectScreen(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	resp, err := h.screenService.Reject(r.Context(), id)
	if err != nil {
		writeScreenError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetScreenSyncStatus returns the per-asset sync status for one screen
// @Summary Get screen sync status
// @Description List per-asset sync status for a screen, with its live connection state
// @Tags screens
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.ErrorResponse
// @Security AdminKeyAuth
// @Router /api/screens/{id}/sync-status [get]
func (h *ScreenHandler) GetScreenSyncStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	screen, err := h.screenService.Get(r.Context(), id)
	if err != nil {
		writeScreenError(w, err)
		return
	}

	statuses, err := h.assetSync.GetStatuses(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to load sync status", http.StatusInternalServerError)
		return
	}

	online := false
	if full, err := h.screenService.GetModel(r.Context(), id); err == nil && full != nil && full.PrincipalID != nil {
		online = h.registry.IsOnline(*full.PrincipalID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"screen":   screen,
		"online":   online,
		"statuses": statuses,
	})
}

func writeScreenError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrScreenNotFound) {
		http.Error(w, "Screen not found", http.StatusNotFound)
		return
	}
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
