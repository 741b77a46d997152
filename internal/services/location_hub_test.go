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

	"github.com/gorilla/websocket"
)

func joinLocationClient(t *testing.T, h *LocationHub, userID string) *LocationClient {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	joined := make(chan *LocationClient, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		joined <- h.Join(userID, conn)
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

func TestLocationBroadcastSurvivesConcurrentClose(t *testing.T) {
	h := NewLocationHub(nil)

	clients := make([]*LocationClient, 0, 8)
	for i := 0; i < 8; i++ {
		clients = append(clients, joinLocationClient(t, h, fmt.Sprintf("u%d", i)))
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rec := &models.LocationRecord{UserID: "u1", Latitude: 21.42, Longitude: 39.82, LastSeenAt: time.Now()}
		for {
			select {
			case <-stop:
				return
			default:
				h.Broadcast(LocationEvent{Event: EventLocationUpdated, Location: rec})
			}
		}
	}()

	var closers sync.WaitGroup
	for _, c := range clients {
		closers.Add(1)
		go func(c *LocationClient) {
			defer closers.Done()
			c.Close()
		}(c)
	}
	closers.Wait()

	time.Sleep(50 * time.Millisecond)
	close(stop)
	wg.Wait()

	h.mu.RLock()
	remaining := len(h.clients)
	h.mu.RUnlock()
	if remaining != 0 {
		t.Errorf("closed clients must have left, %d remain", remaining)
	}
}
