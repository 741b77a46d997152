package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"umrah-companion-backend/internal/models"
	"umrah-companion-backend/internal/repository"

	"github.com/gorilla/websocket"
)

// joinChatClient upgrades a real websocket connection and registers it
// in the hub's room, the way the ws handler does.
func joinChatClient(t *testing.T, h *ChatHub, groupID string, user models.Sender) *ChatClient {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	joined := make(chan *ChatClient, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		joined <- h.Join(groupID, user, conn)
	}))
	t.Cleanup(server.Close)

	clientConn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { clientConn.Close() })

	select {
	case c := <-joined:
		t.Cleanup(c.Close)
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("join timed out")
		return nil
	}
}

func TestHasSubscriberTracksRoom(t *testing.T) {
	h := NewChatHub(nil, nil, nil, nil)
	c := joinChatClient(t, h, "g1", models.Sender{ID: "u1", Name: "Ahmed"})

	if !h.hasSubscriber("g1", "u1") {
		t.Error("joined user must count as a subscriber")
	}
	if h.hasSubscriber("g1", "u2") {
		t.Error("unknown user must not count as a subscriber")
	}
	if h.hasSubscriber("g2", "u1") {
		t.Error("subscription is per group")
	}

	c.Close()
	if h.hasSubscriber("g1", "u1") {
		t.Error("closed client must not count as a subscriber")
	}
}

func TestOfflineTokensSkipSubscribers(t *testing.T) {
	h := NewChatHub(nil, nil, nil, nil)
	joinChatClient(t, h, "g1", models.Sender{ID: "u1", Name: "Ahmed"})

	targets := []repository.PushTarget{
		{UserID: "u1", Token: "tok-1"},
		{UserID: "u2", Token: "tok-2"},
		{UserID: "u3", Token: "tok-3"},
	}

	tokens := h.offlineTokens("g1", targets)
	if len(tokens) != 2 {
		t.Fatalf("expected 2 offline tokens, got %v", tokens)
	}
	if tokens[0] != "tok-2" || tokens[1] != "tok-3" {
		t.Errorf("connected member's token must be skipped: %v", tokens)
	}
}

func TestChatBroadcastSurvivesConcurrentClose(t *testing.T) {
	h := NewChatHub(nil, nil, nil, nil)

	clients := make([]*ChatClient, 0, 8)
	for i := 0; i < 8; i++ {
		user := models.Sender{ID: fmt.Sprintf("u%d", i)}
		clients = append(clients, joinChatClient(t, h, "g1", user))
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		msg := &models.ChatMessage{ID: "m1", GroupID: "g1", Content: "salam"}
		for {
			select {
			case <-stop:
				return
			default:
				h.Broadcast("g1", ChatEvent{Event: EventNewMessage, Message: msg})
			}
		}
	}()

	// Clients dropping while broadcasts hold a stale room snapshot
	// must not bring the hub down.
	var closers sync.WaitGroup
	for _, c := range clients {
		closers.Add(1)
		go func(c *ChatClient) {
			defer closers.Done()
			c.Close()
		}(c)
	}
	closers.Wait()

	time.Sleep(50 * time.Millisecond)
	close(stop)
	wg.Wait()

	if h.hasSubscriber("g1", "u0") {
		t.Error("closed clients must have left the room")
	}
}
