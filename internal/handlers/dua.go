package handlers

import (
	"io"
	"net/http"

	"umrah-companion-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const maxDuaFormSize = 32 << 20 // audio files

// DuaHandler handles dua-related HTTP requests
type DuaHandler struct {
	duaService *services.DuaService
}

// NewDuaHandler creates a new dua handler
func NewDuaHandler(duaService *services.DuaService) *DuaHandler {
	return &DuaHandler{duaService: duaService}
}

// ListDuas handles GET /api/v1/duas
func (h *DuaHandler) ListDuas(w http.ResponseWriter, r *http.Request) {
	duas, err := h.duaService.ListDuas(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list duas")
		respondError(w, "Failed to list duas", http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]interface{}{"duas": duas}, http.StatusOK)
}

// GetDua handles GET /api/v1/duas/{dua_id}
func (h *DuaHandler) GetDua(w http.ResponseWriter, r *http.Request) {
	duaID := chi.URLParam(r, "dua_id")

	dua, err := h.duaService.GetDua(r.Context(), duaID)
	if err != nil {
		log.Error().Err(err).Str("dua_id", duaID).Msg("Failed to get dua")

		statusCode := http.StatusInternalServerError
		if err.Error() == "dua not found" {
			statusCode = http.StatusNotFound
		}

		respondError(w, err.Error(), statusCode)
		return
	}
	respondJSON(w, dua, http.StatusOK)
}

// Categories handles GET /api/v1/duas/categories
func (h *DuaHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.duaService.Categories(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list dua categories")
		respondError(w, "Failed to list categories", http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]interface{}{"categories": categories}, http.StatusOK)
}

// parseDuaForm reads the multipart form shared by create and update.
// The audio reader is nil when no file was attached.
func parseDuaForm(r *http.Request) (*services.DuaInput, string, string, io.Reader, error) {
	if err := r.ParseMultipartForm(maxDuaFormSize); err != nil {
		return nil, "", "", nil, err
	}

	in := &services.DuaInput{
		Title:          r.FormValue("title"),
		Arabic:         r.FormValue("arabic"),
		RawTranslation: r.FormValue("translation"),
		Category:       r.FormValue("category"),
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		return in, "", "", nil, nil
	}
	return in, header.Filename, header.Header.Get("Content-Type"), file, nil
}

// CreateDua handles POST /api/v1/duas (multipart form)
func (h *DuaHandler) CreateDua(w http.ResponseWriter, r *http.Request) {
	in, audioName, audioType, audio, err := parseDuaForm(r)
	if err != nil {
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	dua, err := h.duaService.CreateDua(r.Context(), in, audioName, audioType, audio)
	if err != nil {
		log.Error().Err(err).Str("title", in.Title).Msg("Failed to create dua")

		statusCode := http.StatusInternalServerError
		switch err.Error() {
		case "title is required", "arabic text is required":
			statusCode = http.StatusBadRequest
		}

		respondError(w, err.Error(), statusCode)
		return
	}

	log.Info().Str("dua_id", dua.ID).Str("title", dua.Title).Msg("Dua created")
	respondJSON(w, dua, http.StatusCreated)
}

// UpdateDua handles PUT /api/v1/duas/{dua_id} (multipart form)
func (h *DuaHandler) UpdateDua(w http.ResponseWriter, r *http.Request) {
	duaID := chi.URLParam(r, "dua_id")

	in, audioName, audioType, audio, err := parseDuaForm(r)
	if err != nil {
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	dua, err := h.duaService.UpdateDua(r.Context(), duaID, in, audioName, audioType, audio)
	if err != nil {
		log.Error().Err(err).Str("dua_id", duaID).Msg("Failed to update dua")

		statusCode := http.StatusInternalServerError
		switch err.Error() {
		case "title is required", "arabic text is required":
			statusCode = http.StatusBadRequest
		case "dua not found":
			statusCode = http.StatusNotFound
		}

		respondError(w, err.Error(), statusCode)
		return
	}

	log.Info().Str("dua_id", duaID).Msg("Dua updated")
	respondJSON(w, dua, http.StatusOK)
}

// DeleteDua handles DELETE /api/v1/duas/{dua_id}
func (h *DuaHandler) DeleteDua(w http.ResponseWriter, r *http.Request) {
	duaID := chi.URLParam(r, "dua_id")

	if err := h.duaService.DeleteDua(r.Context(), duaID); err != nil {
		log.Error().Err(err).Str("dua_id", duaID).Msg("Failed to delete dua")

		statusCode := http.StatusInternalServerError
		if err.Error() == "dua not found" {
			statusCode = http.StatusNotFound
		}

		respondError(w, err.Error(), statusCode)
		return
	}

	log.Info().Str("dua_id", duaID).Msg("Dua deleted")
	w.WriteHeader(http.StatusNoContent)
}
