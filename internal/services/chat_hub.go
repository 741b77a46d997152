package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"umrah-companion-backend/internal/models"
	"umrah-companion-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Chat channel event names, shared with the admin client SDK.
const (
	EventSendMessage    = "sendMessage"
	EventEditMessage    = "editMessage"
	EventDeleteMessage  = "deleteMessage"
	EventStartTyping    = "startTyping"
	EventStopTyping     = "stopTyping"
	EventNewMessage     = "newMessage"
	EventMessageUpdated = "messageUpdated"
	EventMessageDeleted = "messageDeleted"
	EventUserTyping     = "userTyping"
	EventError          = "error"
)

// ChatEvent is the wire envelope for the chat namespace, in both
// directions. Unused fields are omitted per event type.
type ChatEvent struct {
	Event     string              `json:"event"`
	TempID    string              `json:"temp_id,omitempty"`
	MessageID string              `json:"message_id,omitempty"`
	Content   string              `json:"content,omitempty"`
	ImageURL  string              `json:"image_url,omitempty"`
	Message   *models.ChatMessage `json:"message,omitempty"`
	Name      string              `json:"name,omitempty"`
	IsTyping  bool                `json:"is_typing,omitempty"`
	Error     string              `json:"error,omitempty"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// ChatClient is one websocket subscriber of a group's chat room
type ChatClient struct {
	conn    *websocket.Conn
	hub     *ChatHub
	groupID string
	user    models.Sender
	send    chan []byte
	done    chan struct{}

	closeOnce sync.Once
}

// ChatHub manages group chat rooms and persists inbound events
type ChatHub struct {
	mu    sync.RWMutex
	rooms map[string]map[*ChatClient]bool

	messageRepo *repository.MessageRepository
	userRepo    *repository.UserRepository
	groups      *GroupService
	push        *PushService
}

// NewChatHub creates a new chat hub
func NewChatHub(
	messageRepo *repository.MessageRepository,
	userRepo *repository.UserRepository,
	groups *GroupService,
	push *PushService,
) *ChatHub {
	return &ChatHub{
		rooms:       make(map[string]map[*ChatClient]bool),
		messageRepo: messageRepo,
		userRepo:    userRepo,
		groups:      groups,
		push:        push,
	}
}

// Join registers a client in a group room and starts its pumps
func (h *ChatHub) Join(groupID string, user models.Sender, conn *websocket.Conn) *ChatClient {
	c := &ChatClient{
		conn:    conn,
		hub:     h,
		groupID: groupID,
		user:    user,
		send:    make(chan []byte, 256),
		done:    make(chan struct{}),
	}

	h.mu.Lock()
	if h.rooms[groupID] == nil {
		h.rooms[groupID] = make(map[*ChatClient]bool)
	}
	h.rooms[groupID][c] = true
	h.mu.Unlock()

	log.Info().
		Str("user_id", user.ID).
		Str("group_id", groupID).
		Msg("Chat channel joined")

	go c.writePump()
	go c.readPump()
	return c
}

func (h *ChatHub) leave(c *ChatClient) {
	h.mu.Lock()
	if m := h.rooms[c.groupID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.rooms, c.groupID)
		}
	}
	h.mu.Unlock()

	log.Info().
		Str("user_id", c.user.ID).
		Str("group_id", c.groupID).
		Msg("Chat channel left")
}

// Broadcast sends an event to every subscriber of a group room
func (h *ChatHub) Broadcast(groupID string, event ChatEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal chat event")
		return
	}

	h.mu.RLock()
	conns := make([]*ChatClient, 0, len(h.rooms[groupID]))
	for c := range h.rooms[groupID] {
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

// hasSubscriber reports whether a user holds an open chat connection for
// the group. Members without one get a push notification instead.
func (h *ChatHub) hasSubscriber(groupID, userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[groupID] {
		if c.user.ID == userID {
			return true
		}
	}
	return false
}

func (h *ChatHub) handleEvent(ctx context.Context, c *ChatClient, ev ChatEvent) {
	var err error
	switch ev.Event {
	case EventSendMessage:
		err = h.handleSend(ctx, c, ev)
	case EventEditMessage:
		err = h.handleEdit(ctx, c, ev)
	case EventDeleteMessage:
		err = h.handleDelete(ctx, c, ev)
	case EventStartTyping:
		h.broadcastTyping(c, true)
	case EventStopTyping:
		h.broadcastTyping(c, false)
	default:
		c.sendError("unknown event")
		return
	}

	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", c.user.ID).
			Str("event", ev.Event).
			Msg("Failed to handle chat event")
		c.sendError(err.Error())
	}
}

func (h *ChatHub) handleSend(ctx context.Context, c *ChatClient, ev ChatEvent) error {
	content := strings.TrimSpace(ev.Content)
	if content == "" && ev.ImageURL == "" {
		c.sendError("message content required")
		return nil
	}

	msg := &models.ChatMessage{
		ID:        uuid.New().String(),
		GroupID:   c.groupID,
		Content:   content,
		ImageURL:  ev.ImageURL,
		Sender:    c.user,
		CreatedAt: time.Now(),
	}

	if err := h.messageRepo.Create(ctx, msg); err != nil {
		return err
	}

	if err := h.groups.TouchActivity(ctx, c.groupID); err != nil {
		log.Warn().Err(err).Str("group_id", c.groupID).Msg("Failed to touch group activity")
	}

	// The sender's temporary id rides along so its placeholder can be
	// replaced; other subscribers ignore it.
	h.Broadcast(c.groupID, ChatEvent{
		Event:   EventNewMessage,
		TempID:  ev.TempID,
		Message: msg,
	})

	go h.pushToOfflineMembers(msg)
	return nil
}

func (h *ChatHub) handleEdit(ctx context.Context, c *ChatClient, ev ChatEvent) error {
	if ev.MessageID == "" {
		c.sendError("message_id required")
		return nil
	}

	existing, err := h.messageRepo.GetByID(ctx, ev.MessageID)
	if err != nil {
		return err
	}
	if existing.Sender.ID != c.user.ID {
		c.sendError("cannot edit another user's message")
		return nil
	}

	if err := h.messageRepo.UpdateContent(ctx, ev.MessageID, strings.TrimSpace(ev.Content)); err != nil {
		return err
	}

	updated, err := h.messageRepo.GetByID(ctx, ev.MessageID)
	if err != nil {
		return err
	}

	h.Broadcast(c.groupID, ChatEvent{Event: EventMessageUpdated, Message: updated})
	return nil
}

func (h *ChatHub) handleDelete(ctx context.Context, c *ChatClient, ev ChatEvent) error {
	if ev.MessageID == "" {
		c.sendError("message_id required")
		return nil
	}

	existing, err := h.messageRepo.GetByID(ctx, ev.MessageID)
	if err != nil {
		return err
	}
	if existing.Sender.ID != c.user.ID && c.user.Role != models.RoleAdmin {
		c.sendError("cannot delete another user's message")
		return nil
	}

	if err := h.messageRepo.SoftDelete(ctx, ev.MessageID); err != nil {
		return err
	}

	deleted, err := h.messageRepo.GetByID(ctx, ev.MessageID)
	if err != nil {
		return err
	}

	h.Broadcast(c.groupID, ChatEvent{Event: EventMessageDeleted, Message: deleted})
	return nil
}

func (h *ChatHub) broadcastTyping(c *ChatClient, typing bool) {
	ev := ChatEvent{Event: EventUserTyping, Name: c.user.Name, IsTyping: typing}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	conns := make([]*ChatClient, 0, len(h.rooms[c.groupID]))
	for other := range h.rooms[c.groupID] {
		if other != c {
			conns = append(conns, other)
		}
	}
	h.mu.RUnlock()

	for _, other := range conns {
		select {
		case other.send <- data:
		default:
		}
	}
}

func (h *ChatHub) pushToOfflineMembers(msg *models.ChatMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	targets, err := h.userRepo.PushTokensByGroup(ctx, msg.GroupID, msg.Sender.ID)
	if err != nil {
		log.Warn().Err(err).Str("group_id", msg.GroupID).Msg("Failed to load push tokens")
		return
	}

	tokens := h.offlineTokens(msg.GroupID, targets)
	if len(tokens) == 0 {
		return
	}

	body := msg.Content
	if body == "" {
		body = "Sent a photo"
	}

	h.push.NotifyAll(tokens, msg.Sender.Name, body, map[string]interface{}{
		"group_id":   msg.GroupID,
		"message_id": msg.ID,
	})
}

// offlineTokens keeps the tokens of members who hold no open chat
// connection for the group; subscribers see the broadcast instead.
func (h *ChatHub) offlineTokens(groupID string, targets []repository.PushTarget) []string {
	tokens := make([]string, 0, len(targets))
	for _, target := range targets {
		if h.hasSubscriber(groupID, target.UserID) {
			continue
		}
		tokens = append(tokens, target.Token)
	}
	return tokens
}

func (c *ChatClient) readPump() {
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
				log.Error().Err(err).Str("user_id", c.user.ID).Msg("Chat websocket error")
			}
			return
		}

		var ev ChatEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.sendError("invalid event format")
			continue
		}

		c.hub.handleEvent(context.Background(), c, ev)
	}
}

func (c *ChatClient) writePump() {
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

func (c *ChatClient) sendError(message string) {
	data, _ := json.Marshal(ChatEvent{Event: EventError, Error: message})
	select {
	case c.send <- data:
	default:
	}
}

// Close tears the client down and leaves its room. The send channel is
// never closed: a Broadcast that snapshotted this client before it left
// may still be sending, so writePump is stopped through done instead.
func (c *ChatClient) Close() {
	c.closeOnce.Do(func() {
		c.hub.leave(c)
		close(c.done)
		_ = c.conn.Close()
	})
}
