package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"umrah-companion-backend/internal/models"
	"umrah-companion-backend/internal/repository"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Location channel event names, shared with the admin client SDK.
const (
	EventUpdateLocation  = "updateLocation"
	EventLocationUpdated = "locationUpdated"
)

// LocationEvent is the wire envelope for the location namespace
type LocationEvent struct {
	Event     string                 `json:"event"`
	Latitude  float64                `json:"latitude,omitempty"`
	Longitude float64                `json:"longitude,omitempty"`
	Location  *models.LocationRecord `json:"location,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// LocationClient is one websocket subscriber of the location channel
type LocationClient struct {
	conn   *websocket.Conn
	hub    *LocationHub
	userID string
	send   chan []byte
	done   chan struct{}

	closeOnce sync.Once
}

// LocationHub is a single shared room: every subscriber receives every
// location update, and pilgrim devices publish their own positions.
type LocationHub struct {
	mu      sync.RWMutex
	clients map[*LocationClient]bool

	locationRepo *repository.LocationRepository
}

// NewLocationHub creates a new location hub
func NewLocationHub(locationRepo *repository.LocationRepository) *LocationHub {
	return &LocationHub{
		clients:      make(map[*LocationClient]bool),
		locationRepo: locationRepo,
	}
}

// Join registers a subscriber and starts its pumps
func (h *LocationHub) Join(userID string, conn *websocket.Conn) *LocationClient {
	c := &LocationClient{
		conn:   conn,
		hub:    h,
		userID: userID,
		send:   make(chan []byte, 64),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	log.Info().Str("user_id", userID).Msg("Location channel joined")

	go c.writePump()
	go c.readPump()
	return c
}

func (h *LocationHub) leave(c *LocationClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()

	log.Info().Str("user_id", c.userID).Msg("Location channel left")
}

// Broadcast sends an event to every subscriber
func (h *LocationHub) Broadcast(event LocationEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal location event")
		return
	}

	h.mu.RLock()
	conns := make([]*LocationClient, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		select {
		case c.send <- data:
		default:
			go c.Close()
		}
	}
}

func (h *LocationHub) handleEvent(ctx context.Context, c *LocationClient, ev LocationEvent) {
	if ev.Event != EventUpdateLocation {
		return
	}

	rec := &models.LocationRecord{
		UserID:     c.userID,
		Latitude:   ev.Latitude,
		Longitude:  ev.Longitude,
		LastSeenAt: time.Now(),
	}

	if err := h.locationRepo.Upsert(ctx, rec); err != nil {
		log.Error().Err(err).Str("user_id", c.userID).Msg("Failed to store location")
		return
	}

	h.Broadcast(LocationEvent{Event: EventLocationUpdated, Location: rec})
}

func (c *LocationClient) readPump() {
	defer c.Close()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", c.userID).Msg("Location websocket error")
			}
			return
		}

		var ev LocationEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}

		c.hub.handleEvent(context.Background(), c, ev)
	}
}

func (c *LocationClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// Close tears the client down. The send channel stays open so that a
// Broadcast holding a stale snapshot of the room cannot send on a
// closed channel; writePump is stopped through done instead.
func (c *LocationClient) Close() {
	c.closeOnce.Do(func() {
		c.hub.leave(c)
		close(c.done)
		_ = c.conn.Close()
	})
}
