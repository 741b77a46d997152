package handlers

import (
	"encoding/json"
	"net/http"

	"umrah-companion-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers handles GET /api/v1/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		respondError(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]interface{}{"users": users}, http.StatusOK)
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.CreateUser(r.Context(), &req)
	if err != nil {
		log.Error().Err(err).Str("phone", req.Phone).Msg("Failed to create user")

		statusCode := http.StatusInternalServerError
		switch err.Error() {
		case "phone is required", "amir role requires a group":
			statusCode = http.StatusBadRequest
		case "phone already registered":
			statusCode = http.StatusConflict
		case "group not found":
			statusCode = http.StatusNotFound
		}

		respondError(w, err.Error(), statusCode)
		return
	}

	log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("User created")
	respondJSON(w, user, http.StatusCreated)
}

// UpdateUser handles PUT /api/v1/users/{user_id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	var req services.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), userID, &req)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update user")

		statusCode := http.StatusInternalServerError
		switch err.Error() {
		case "phone is required", "amir role requires a group":
			statusCode = http.StatusBadRequest
		case "user not found":
			statusCode = http.StatusNotFound
		}

		respondError(w, err.Error(), statusCode)
		return
	}

	log.Info().Str("user_id", userID).Msg("User updated")
	respondJSON(w, user, http.StatusOK)
}

// DeleteUser handles DELETE /api/v1/users/{user_id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	if err := h.userService.DeleteUser(r.Context(), userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to delete user")

		statusCode := http.StatusInternalServerError
		if err.Error() == "user not found" {
			statusCode = http.StatusNotFound
		}

		respondError(w, err.Error(), statusCode)
		return
	}

	log.Info().Str("user_id", userID).Msg("User deleted")
	w.WriteHeader(http.StatusNoContent)
}

// PushTokenRequest represents a device token registration
type PushTokenRequest struct {
	Token *string `json:"token"`
}

// RegisterPushToken handles POST /api/v1/users/{user_id}/push-token
func (h *UserHandler) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	var req PushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.userService.RegisterPushToken(r.Context(), userID, req.Token); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to register push token")
		respondError(w, "Failed to register push token", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
