package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"umrah-companion-backend/client"
	"umrah-companion-backend/internal/models"
	"umrah-companion-backend/internal/services"

	"github.com/gorilla/websocket"
)

// fakeGateway stands in for the chat backend: it serves the history
// endpoint, upgrades websocket connections, acknowledges sends with a
// server record, and lets tests inject arbitrary events.
type fakeGateway struct {
	history []models.ChatMessage

	mu   sync.Mutex
	conn *websocket.Conn
}

func (g *fakeGateway) handler() http.Handler {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/groups/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"messages": g.history})
	})

	mux.HandleFunc("/ws/chat", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		g.mu.Lock()
		g.conn = conn
		g.mu.Unlock()

		for {
			var ev services.ChatEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			if ev.Event == services.EventSendMessage {
				g.inject(services.ChatEvent{
					Event:  services.EventNewMessage,
					TempID: ev.TempID,
					Message: &models.ChatMessage{
						ID:        "srv-1",
						GroupID:   r.URL.Query().Get("group_id"),
						Content:   ev.Content,
						ImageURL:  ev.ImageURL,
						Sender:    models.Sender{ID: "me", Name: "Admin", Role: models.RoleAdmin},
						CreatedAt: time.Now(),
					},
				})
			}
		}
	})
	return mux
}

// inject writes an event to the connected client, waiting for the
// upgrade handler to register the connection first.
func (g *fakeGateway) inject(ev services.ChatEvent) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		g.mu.Lock()
		if g.conn != nil {
			g.conn.WriteJSON(ev)
			g.mu.Unlock()
			return
		}
		g.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
}

func newTestAdapter(t *testing.T, gateway *fakeGateway) *Adapter {
	t.Helper()
	server := httptest.NewServer(gateway.handler())
	t.Cleanup(server.Close)

	api := client.New(server.URL)
	api.SetToken("test-token")
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	a := NewAdapter(api, wsURL, models.Sender{ID: "me", Name: "Admin", Role: models.RoleAdmin})
	t.Cleanup(a.Close)
	return a
}

// waitFor polls until the condition holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSendRequiresOpenChannel(t *testing.T) {
	api := client.New("http://127.0.0.1:0")
	api.SetToken("test-token")
	a := NewAdapter(api, "ws://127.0.0.1:0", models.Sender{ID: "me"})

	if err := a.Send(context.Background(), "hello", nil); err == nil {
		t.Fatal("expected send on a closed channel to fail")
	}
	if got := a.Messages(); len(got) != 0 {
		t.Fatalf("no placeholder may appear on a rejected send, got %d", len(got))
	}
}

func TestSendRejectsEmptyContent(t *testing.T) {
	gateway := &fakeGateway{}
	a := newTestAdapter(t, gateway)
	if err := a.Open(context.Background(), "g1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := a.Send(context.Background(), "   ", nil); err == nil {
		t.Fatal("expected whitespace-only send to fail")
	}
	if got := a.Messages(); len(got) != 0 {
		t.Fatalf("rejected send must not append, got %d messages", len(got))
	}
}

func TestOpenLoadsHistoryConfirmed(t *testing.T) {
	gateway := &fakeGateway{history: []models.ChatMessage{
		{ID: "m1", GroupID: "g1", Content: "salam"},
	}}
	a := newTestAdapter(t, gateway)

	if err := a.Open(context.Background(), "g1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if a.Status() != StatusConnected {
		t.Fatalf("expected connected status, got %s", a.Status())
	}

	got := a.Messages()
	if len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("history not loaded: %+v", got)
	}
	if got[0].State != SendConfirmed {
		t.Error("history entries must be confirmed")
	}
}

func TestSendReplacesPlaceholderOnAck(t *testing.T) {
	gateway := &fakeGateway{}
	a := newTestAdapter(t, gateway)
	if err := a.Open(context.Background(), "g1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := a.Send(context.Background(), "on our way", nil); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	// The placeholder is visible immediately, before any ack.
	got := a.Messages()
	if len(got) != 1 || !got[0].IsSending() {
		t.Fatalf("expected one pending placeholder, got %+v", got)
	}
	tempID := got[0].ID

	waitFor(t, "placeholder replacement", func() bool {
		msgs := a.Messages()
		return len(msgs) == 1 && msgs[0].ID == "srv-1"
	})

	got = a.Messages()
	if got[0].State != SendConfirmed {
		t.Error("acknowledged message must be confirmed")
	}
	if got[0].ID == tempID {
		t.Error("temporary id must be replaced by the server id")
	}
	if got[0].Content != "on our way" {
		t.Errorf("unexpected content %q", got[0].Content)
	}
}

func TestDeleteFoldsInPlace(t *testing.T) {
	gateway := &fakeGateway{history: []models.ChatMessage{
		{ID: "m1", GroupID: "g1", Content: "first"},
		{ID: "m2", GroupID: "g1", Content: "second"},
	}}
	a := newTestAdapter(t, gateway)
	if err := a.Open(context.Background(), "g1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	gateway.inject(services.ChatEvent{
		Event:   services.EventMessageDeleted,
		Message: &models.ChatMessage{ID: "m1", GroupID: "g1", IsDeleted: true},
	})

	waitFor(t, "soft delete fold", func() bool {
		msgs := a.Messages()
		return len(msgs) == 2 && msgs[0].IsDeleted
	})

	got := a.Messages()
	if got[0].ID != "m1" || got[0].Content != "" {
		t.Fatalf("deleted message must stay in place with cleared content: %+v", got[0])
	}
	if got[1].ID != "m2" {
		t.Error("untouched messages must keep their position")
	}
}

func TestEditFoldsServerRecord(t *testing.T) {
	gateway := &fakeGateway{history: []models.ChatMessage{
		{ID: "m1", GroupID: "g1", Content: "first"},
	}}
	a := newTestAdapter(t, gateway)
	if err := a.Open(context.Background(), "g1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	gateway.inject(services.ChatEvent{
		Event:   services.EventMessageUpdated,
		Message: &models.ChatMessage{ID: "m1", GroupID: "g1", Content: "first, edited", IsEdited: true},
	})

	waitFor(t, "edit fold", func() bool {
		msgs := a.Messages()
		return len(msgs) == 1 && msgs[0].IsEdited
	})

	if got := a.Messages(); got[0].Content != "first, edited" {
		t.Fatalf("unexpected content %q", got[0].Content)
	}
}

func TestTypingSetFollowsEvents(t *testing.T) {
	gateway := &fakeGateway{}
	a := newTestAdapter(t, gateway)
	if err := a.Open(context.Background(), "g1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	gateway.inject(services.ChatEvent{Event: services.EventUserTyping, Name: "Ahmed", IsTyping: true})
	gateway.inject(services.ChatEvent{Event: services.EventUserTyping, Name: "Bilal", IsTyping: true})

	waitFor(t, "typing names", func() bool { return len(a.Typing()) == 2 })
	if names := a.Typing(); names[0] != "Ahmed" || names[1] != "Bilal" {
		t.Fatalf("unexpected typing set %v", names)
	}

	gateway.inject(services.ChatEvent{Event: services.EventUserTyping, Name: "Ahmed", IsTyping: false})

	waitFor(t, "typing stop", func() bool { return len(a.Typing()) == 1 })
	if names := a.Typing(); names[0] != "Bilal" {
		t.Fatalf("unexpected typing set %v", names)
	}
}
