package handlers

import (
	"net/http"

	"umrah-companion-backend/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// LocationHandler handles location-related HTTP requests
type LocationHandler struct {
	locationRepo *repository.LocationRepository
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locationRepo *repository.LocationRepository) *LocationHandler {
	return &LocationHandler{locationRepo: locationRepo}
}

// ListLocations handles GET /api/v1/locations
func (h *LocationHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.locationRepo.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list locations")
		respondError(w, "Failed to list locations", http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]interface{}{"locations": locations}, http.StatusOK)
}

// GetLocation handles GET /api/v1/locations/{user_id}
func (h *LocationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	rec, err := h.locationRepo.GetByUserID(r.Context(), userID)
	if err != nil {
		respondError(w, "location not found", http.StatusNotFound)
		return
	}
	respondJSON(w, rec, http.StatusOK)
}
