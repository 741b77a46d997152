package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"umrah-companion-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// GroupHandler handles group-related HTTP requests
type GroupHandler struct {
	groupService   *services.GroupService
	messageService *services.MessageService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService *services.GroupService, messageService *services.MessageService) *GroupHandler {
	return &GroupHandler{groupService: groupService, messageService: messageService}
}

// ListGroups handles GET /api/v1/groups
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupService.ListGroups(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list groups")
		respondError(w, "Failed to list groups", http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]interface{}{"groups": groups}, http.StatusOK)
}

// GetGroup handles GET /api/v1/groups/{group_id}
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")

	group, err := h.groupService.GetGroup(r.Context(), groupID)
	if err != nil {
		log.Error().Err(err).Str("group_id", groupID).Msg("Failed to get group")
		respondError(w, "group not found", http.StatusNotFound)
		return
	}
	respondJSON(w, group, http.StatusOK)
}

// CreateGroup handles POST /api/v1/groups
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req services.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	group, err := h.groupService.CreateGroup(r.Context(), &req)
	if err != nil {
		log.Error().Err(err).Str("name", req.Name).Msg("Failed to create group")

		statusCode := http.StatusInternalServerError
		switch err.Error() {
		case "name is required", "a leader must be selected":
			statusCode = http.StatusBadRequest
		case "leader not found":
			statusCode = http.StatusNotFound
		}

		respondError(w, err.Error(), statusCode)
		return
	}

	log.Info().Str("group_id", group.ID).Str("name", group.Name).Msg("Group created")
	respondJSON(w, group, http.StatusCreated)
}

// UpdateGroup handles PUT /api/v1/groups/{group_id}
func (h *GroupHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")

	var req services.UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	group, err := h.groupService.UpdateGroup(r.Context(), groupID, &req)
	if err != nil {
		log.Error().Err(err).Str("group_id", groupID).Msg("Failed to update group")

		statusCode := http.StatusInternalServerError
		switch err.Error() {
		case "name is required":
			statusCode = http.StatusBadRequest
		case "group not found", "leader not found":
			statusCode = http.StatusNotFound
		}

		respondError(w, err.Error(), statusCode)
		return
	}

	log.Info().Str("group_id", groupID).Msg("Group updated")
	respondJSON(w, group, http.StatusOK)
}

// DeleteGroup handles DELETE /api/v1/groups/{group_id}
func (h *GroupHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")

	if err := h.groupService.DeleteGroup(r.Context(), groupID); err != nil {
		log.Error().Err(err).Str("group_id", groupID).Msg("Failed to delete group")

		statusCode := http.StatusInternalServerError
		if err.Error() == "group not found" {
			statusCode = http.StatusNotFound
		}

		respondError(w, err.Error(), statusCode)
		return
	}

	log.Info().Str("group_id", groupID).Msg("Group deleted")
	w.WriteHeader(http.StatusNoContent)
}

// GetMessages handles GET /api/v1/groups/{group_id}/messages
func (h *GroupHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")

	limit := 100
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil {
			offset = parsed
		}
	}

	messages, total, err := h.messageService.History(r.Context(), groupID, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("group_id", groupID).Msg("Failed to get messages")
		respondError(w, "Failed to get messages", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]interface{}{
		"messages": messages,
		"total":    total,
	}, http.StatusOK)
}
