package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"umrah-companion-backend/internal/models"
	"umrah-companion-backend/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// GuideHandler handles guide-related HTTP requests
type GuideHandler struct {
	guideRepo *repository.GuideRepository
}

// NewGuideHandler creates a new guide handler
func NewGuideHandler(guideRepo *repository.GuideRepository) *GuideHandler {
	return &GuideHandler{guideRepo: guideRepo}
}

// GuideRequest represents a guide create/update body
type GuideRequest struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	Category   string `json:"category"`
	OrderIndex int    `json:"order_index"`
}

// ListGuides handles GET /api/v1/guides
func (h *GuideHandler) ListGuides(w http.ResponseWriter, r *http.Request) {
	guides, err := h.guideRepo.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list guides")
		respondError(w, "Failed to list guides", http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]interface{}{"guides": guides}, http.StatusOK)
}

// CreateGuide handles POST /api/v1/guides
func (h *GuideHandler) CreateGuide(w http.ResponseWriter, r *http.Request) {
	var req GuideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		respondError(w, "title is required", http.StatusBadRequest)
		return
	}

	guide := &models.Guide{
		ID:         uuid.New().String(),
		Title:      req.Title,
		Body:       req.Body,
		Category:   req.Category,
		OrderIndex: req.OrderIndex,
		CreatedAt:  time.Now(),
	}

	if err := h.guideRepo.Create(r.Context(), guide); err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("Failed to create guide")
		respondError(w, "Failed to create guide", http.StatusInternalServerError)
		return
	}

	log.Info().Str("guide_id", guide.ID).Msg("Guide created")
	respondJSON(w, guide, http.StatusCreated)
}

// UpdateGuide handles PUT /api/v1/guides/{guide_id}
func (h *GuideHandler) UpdateGuide(w http.ResponseWriter, r *http.Request) {
	guideID := chi.URLParam(r, "guide_id")

	var req GuideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		respondError(w, "title is required", http.StatusBadRequest)
		return
	}

	guide, err := h.guideRepo.GetByID(r.Context(), guideID)
	if err != nil {
		respondError(w, "guide not found", http.StatusNotFound)
		return
	}

	guide.Title = req.Title
	guide.Body = req.Body
	guide.Category = req.Category
	guide.OrderIndex = req.OrderIndex

	if err := h.guideRepo.Update(r.Context(), guide); err != nil {
		log.Error().Err(err).Str("guide_id", guideID).Msg("Failed to update guide")
		respondError(w, "Failed to update guide", http.StatusInternalServerError)
		return
	}

	log.Info().Str("guide_id", guideID).Msg("Guide updated")
	respondJSON(w, guide, http.StatusOK)
}

// DeleteGuide handles DELETE /api/v1/guides/{guide_id}
func (h *GuideHandler) DeleteGuide(w http.ResponseWriter, r *http.Request) {
	guideID := chi.URLParam(r, "guide_id")

	if err := h.guideRepo.Delete(r.Context(), guideID); err != nil {
		log.Error().Err(err).Str("guide_id", guideID).Msg("Failed to delete guide")

		statusCode := http.StatusInternalServerError
		if err.Error() == "guide not found" {
			statusCode = http.StatusNotFound
		}

		respondError(w, err.Error(), statusCode)
		return
	}

	log.Info().Str("guide_id", guideID).Msg("Guide deleted")
	w.WriteHeader(http.StatusNoContent)
}
