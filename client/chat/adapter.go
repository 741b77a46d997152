// Package chat mirrors one group's message history and live edits for
// the duration of the chat view being open.
package chat

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"umrah-companion-backend/client"
	"umrah-companion-backend/internal/models"
	"umrah-companion-backend/internal/services"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Status is the channel's connection state
type Status string

const (
	StatusIdle         Status = "idle"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
)

// SendState is the delivery state of a locally visible message
type SendState int

const (
	// SendConfirmed is server-acknowledged state; history entries and
	// inbound messages are always confirmed.
	SendConfirmed SendState = iota
	SendPending
	SendFailed
)

// Message is a chat message as the view sees it: the server record plus
// the local delivery state of an optimistic send.
type Message struct {
	models.ChatMessage
	TempID string
	State  SendState
}

// IsSending reports whether the message is an unacknowledged placeholder
func (m *Message) IsSending() bool { return m.State == SendPending }

// Failed reports whether the send failed; the entry stays visible so the
// user can see and retry.
func (m *Message) Failed() bool { return m.State == SendFailed }

// ImageAttachment is a file attached to an outbound message
type ImageAttachment struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

const typingQuiet = 2 * time.Second

// Adapter is the live chat channel for the currently selected group. At
// most one channel is open at a time: selecting a new group tears the
// previous one down before connecting.
type Adapter struct {
	api   *client.Client
	wsURL string
	self  models.Sender

	mu       sync.Mutex
	status   Status
	groupID  string
	conn     *websocket.Conn
	messages []Message
	typing   map[string]bool

	stopTimer *time.Timer
}

// NewAdapter creates a chat adapter. wsURL is the websocket base, e.g.
// "ws://host:8080". self identifies the local user on placeholders.
func NewAdapter(api *client.Client, wsURL string, self models.Sender) *Adapter {
	return &Adapter{
		api:    api,
		wsURL:  wsURL,
		self:   self,
		status: StatusIdle,
		typing: make(map[string]bool),
	}
}

// Open selects a group: fetches its history and connects the live
// channel. Any previously open channel is closed first.
func (a *Adapter) Open(ctx context.Context, groupID string) error {
	if a.api.Token() == "" {
		return fmt.Errorf("not authenticated")
	}

	a.Close()

	a.mu.Lock()
	a.status = StatusConnecting
	a.groupID = groupID
	a.mu.Unlock()

	history, err := a.api.Messages(ctx, groupID, 500, 0)
	if err != nil {
		a.setStatus(StatusError)
		return err
	}

	url := fmt.Sprintf("%s/ws/chat?group_id=%s&token=%s", a.wsURL, groupID, a.api.Token())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		a.setStatus(StatusError)
		return fmt.Errorf("failed to connect chat channel: %w", err)
	}

	messages := make([]Message, 0, len(history))
	for _, m := range history {
		messages = append(messages, Message{ChatMessage: m, State: SendConfirmed})
	}

	a.mu.Lock()
	a.conn = conn
	a.status = StatusConnected
	a.messages = messages
	a.typing = make(map[string]bool)
	a.mu.Unlock()

	go a.readLoop(conn)
	return nil
}

// Close tears the channel down and returns the adapter to idle
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopTimer != nil {
		a.stopTimer.Stop()
		a.stopTimer = nil
	}
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	a.status = StatusIdle
	a.groupID = ""
	a.typing = make(map[string]bool)
}

// Send emits a message. It requires non-empty trimmed text or an image,
// and an open channel: while disconnected nothing is appended and
// nothing is emitted. A pending placeholder appears immediately and is
// replaced by the server record on acknowledgment, or marked failed.
func (a *Adapter) Send(ctx context.Context, content string, image *ImageAttachment) error {
	content = strings.TrimSpace(content)
	if content == "" && image == nil {
		return fmt.Errorf("message is empty")
	}

	a.mu.Lock()
	if a.status != StatusConnected || a.conn == nil {
		a.mu.Unlock()
		return fmt.Errorf("chat channel not connected")
	}
	conn := a.conn
	groupID := a.groupID

	tempID := uuid.New().String()
	a.messages = append(a.messages, Message{
		ChatMessage: models.ChatMessage{
			ID:        tempID,
			GroupID:   groupID,
			Content:   content,
			Sender:    a.self,
			CreatedAt: time.Now(),
		},
		TempID: tempID,
		State:  SendPending,
	})
	a.mu.Unlock()

	imageURL := ""
	if image != nil {
		sig, err := a.api.SignUpload(ctx, groupID, image.Filename, image.ContentType)
		if err != nil {
			a.markFailed(tempID)
			return err
		}
		if err := a.api.UploadFile(ctx, sig.UploadURL, image.ContentType, image.Data); err != nil {
			a.markFailed(tempID)
			return err
		}
		imageURL = sig.PublicURL
		a.setImageURL(tempID, imageURL)
	}

	err := conn.WriteJSON(services.ChatEvent{
		Event:    services.EventSendMessage,
		TempID:   tempID,
		Content:  content,
		ImageURL: imageURL,
	})
	if err != nil {
		a.markFailed(tempID)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Edit emits an edit. The list is only mutated when the corresponding
// messageUpdated event comes back.
func (a *Adapter) Edit(messageID, content string) error {
	return a.emit(services.ChatEvent{
		Event:     services.EventEditMessage,
		MessageID: messageID,
		Content:   content,
	})
}

// Delete emits a delete. The list is only mutated when the
// corresponding messageDeleted event comes back.
func (a *Adapter) Delete(messageID string) error {
	return a.emit(services.ChatEvent{
		Event:     services.EventDeleteMessage,
		MessageID: messageID,
	})
}

// InputChanged signals typing on every input change and schedules a
// stop signal after two seconds of quiet; a new change reschedules it.
func (a *Adapter) InputChanged() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status != StatusConnected || a.conn == nil {
		return
	}
	a.conn.WriteJSON(services.ChatEvent{Event: services.EventStartTyping})

	if a.stopTimer != nil {
		a.stopTimer.Stop()
	}
	conn := a.conn
	a.stopTimer = time.AfterFunc(typingQuiet, func() {
		conn.WriteJSON(services.ChatEvent{Event: services.EventStopTyping})
	})
}

// Status returns the channel state
func (a *Adapter) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Messages returns a snapshot of the message list in receive order
func (a *Adapter) Messages() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Message(nil), a.messages...)
}

// Typing returns the display names currently typing, sorted
func (a *Adapter) Typing() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.typing))
	for name := range a.typing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *Adapter) emit(ev services.ChatEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != StatusConnected || a.conn == nil {
		return fmt.Errorf("chat channel not connected")
	}
	return a.conn.WriteJSON(ev)
}

func (a *Adapter) setStatus(status Status) {
	a.mu.Lock()
	a.status = status
	a.mu.Unlock()
}

func (a *Adapter) markFailed(tempID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.messages {
		if a.messages[i].TempID == tempID {
			a.messages[i].State = SendFailed
			return
		}
	}
}

func (a *Adapter) setImageURL(tempID, url string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.messages {
		if a.messages[i].TempID == tempID {
			a.messages[i].ImageURL = url
			return
		}
	}
}

func (a *Adapter) readLoop(conn *websocket.Conn) {
	for {
		var ev services.ChatEvent
		if err := conn.ReadJSON(&ev); err != nil {
			a.mu.Lock()
			// A deliberate Close already reset the state; only a live
			// connection dropping marks the channel disconnected.
			if a.conn == conn {
				a.conn = nil
				a.status = StatusDisconnected
			}
			a.mu.Unlock()
			return
		}
		a.fold(ev)
	}
}

// fold applies one inbound event to the message list. Ordering is
// append/replace only: entries are never reordered or removed.
func (a *Adapter) fold(ev services.ChatEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch ev.Event {
	case services.EventNewMessage:
		if ev.Message == nil {
			return
		}
		if ev.TempID != "" {
			for i := range a.messages {
				if a.messages[i].TempID == ev.TempID {
					a.messages[i] = Message{ChatMessage: *ev.Message, State: SendConfirmed}
					return
				}
			}
		}
		a.messages = append(a.messages, Message{ChatMessage: *ev.Message, State: SendConfirmed})

	case services.EventMessageUpdated, services.EventMessageDeleted:
		if ev.Message == nil {
			return
		}
		for i := range a.messages {
			if a.messages[i].ID == ev.Message.ID {
				a.messages[i] = Message{ChatMessage: *ev.Message, State: SendConfirmed}
				return
			}
		}

	case services.EventUserTyping:
		if ev.Name == "" {
			return
		}
		if ev.IsTyping {
			a.typing[ev.Name] = true
		} else {
			delete(a.typing, ev.Name)
		}
	}
}
