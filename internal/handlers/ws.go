package handlers

import (
	"net/http"

	"umrah-companion-backend/internal/middleware"
	"umrah-companion-backend/internal/models"
	"umrah-companion-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard is served from a separate origin; restrict in
		// deployment config when the origins are known.
		return true
	},
}

// WSHandler upgrades websocket connections for the chat and location
// namespaces.
type WSHandler struct {
	chatHub     *services.ChatHub
	locationHub *services.LocationHub
	userService *services.UserService
}

// NewWSHandler creates a new websocket handler
func NewWSHandler(chatHub *services.ChatHub, locationHub *services.LocationHub, userService *services.UserService) *WSHandler {
	return &WSHandler{
		chatHub:     chatHub,
		locationHub: locationHub,
		userService: userService,
	}
}

// HandleChat handles GET /ws/chat?group_id=...&token=...
func (h *WSHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("group_id")
	if groupID == "" {
		respondError(w, "group_id required", http.StatusBadRequest)
		return
	}

	userID, _, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.userService)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		respondError(w, "user not found", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade chat connection")
		return
	}

	sender := models.Sender{ID: user.ID, Name: user.Name, Role: user.Role}
	h.chatHub.Join(groupID, sender, conn)
}

// HandleLocation handles GET /ws/location?token=...
func (h *WSHandler) HandleLocation(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.userService)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade location connection")
		return
	}

	h.locationHub.Join(userID, conn)
}
