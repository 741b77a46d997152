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

// PlaceHandler handles place-related HTTP requests
type PlaceHandler struct {
	placeRepo *repository.PlaceRepository
}

// NewPlaceHandler creates a new place handler
func NewPlaceHandler(placeRepo *repository.PlaceRepository) *PlaceHandler {
	return &PlaceHandler{placeRepo: placeRepo}
}

// PlaceRequest represents a place create/update body
type PlaceRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"image_url"`
}

// ListPlaces handles GET /api/v1/places
func (h *PlaceHandler) ListPlaces(w http.ResponseWriter, r *http.Request) {
	places, err := h.placeRepo.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list places")
		respondError(w, "Failed to list places", http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]interface{}{"places": places}, http.StatusOK)
}

// CreatePlace handles POST /api/v1/places
func (h *PlaceHandler) CreatePlace(w http.ResponseWriter, r *http.Request) {
	var req PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		respondError(w, "name is required", http.StatusBadRequest)
		return
	}

	place := &models.Place{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		CreatedAt:   time.Now(),
	}

	if err := h.placeRepo.Create(r.Context(), place); err != nil {
		log.Error().Err(err).Str("name", req.Name).Msg("Failed to create place")
		respondError(w, "Failed to create place", http.StatusInternalServerError)
		return
	}

	log.Info().Str("place_id", place.ID).Msg("Place created")
	respondJSON(w, place, http.StatusCreated)
}

// UpdatePlace handles PUT /api/v1/places/{place_id}
func (h *PlaceHandler) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "place_id")

	var req PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		respondError(w, "name is required", http.StatusBadRequest)
		return
	}

	place, err := h.placeRepo.GetByID(r.Context(), placeID)
	if err != nil {
		respondError(w, "place not found", http.StatusNotFound)
		return
	}

	place.Name = req.Name
	place.Description = req.Description
	place.Latitude = req.Latitude
	place.Longitude = req.Longitude
	place.Category = req.Category
	place.ImageURL = req.ImageURL

	if err := h.placeRepo.Update(r.Context(), place); err != nil {
		log.Error().Err(err).Str("place_id", placeID).Msg("Failed to update place")
		respondError(w, "Failed to update place", http.StatusInternalServerError)
		return
	}

	log.Info().Str("place_id", placeID).Msg("Place updated")
	respondJSON(w, place, http.StatusOK)
}

// DeletePlace handles DELETE /api/v1/places/{place_id}
func (h *PlaceHandler) DeletePlace(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "place_id")

	if err := h.placeRepo.Delete(r.Context(), placeID); err != nil {
		log.Error().Err(err).Str("place_id", placeID).Msg("Failed to delete place")

		statusCode := http.StatusInternalServerError
		if err.Error() == "place not found" {
			statusCode = http.StatusNotFound
		}

		respondError(w, err.Error(), statusCode)
		return
	}

	log.Info().Str("place_id", placeID).Msg("Place deleted")
	w.WriteHeader(http.StatusNoContent)
}
