package handlers

import (
	"encoding/json"
	"net/http"

	"umrah-companion-backend/internal/models"
	"umrah-companion-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	userService *services.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Phone == "" || req.Password == "" {
		respondError(w, "phone and password are required", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		log.Warn().Str("phone", req.Phone).Msg("Login failed")
		respondError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User logged in")
	respondJSON(w, LoginResponse{Token: token, User: user}, http.StatusOK)
}
