package handlers

import (
	"encoding/json"
	"net/http"

	"umrah-companion-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// MediaHandler handles media upload-signature requests
type MediaHandler struct {
	mediaService *services.MediaService
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(mediaService *services.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// SignatureRequest represents an upload-signature request
type SignatureRequest struct {
	GroupID     string `json:"group_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// SignUpload handles POST /api/v1/media/signature
func (h *MediaHandler) SignUpload(w http.ResponseWriter, r *http.Request) {
	var req SignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.GroupID == "" || req.Filename == "" {
		respondError(w, "group_id and filename are required", http.StatusBadRequest)
		return
	}

	signature, err := h.mediaService.SignChatUpload(r.Context(), req.GroupID, req.Filename, req.ContentType)
	if err != nil {
		log.Error().Err(err).Str("group_id", req.GroupID).Msg("Failed to sign upload")
		respondError(w, "Failed to sign upload", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("group_id", req.GroupID).
		Str("key", signature.Key).
		Msg("Upload signature issued")
	respondJSON(w, signature, http.StatusOK)
}
