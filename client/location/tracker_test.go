package location

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

// fakeDirectory resolves users and groups from fixed maps
type fakeDirectory struct {
	users  map[string]models.User
	groups map[string]models.Group
}

func (d *fakeDirectory) UserByID(id string) (models.User, bool) {
	u, ok := d.users[id]
	return u, ok
}

func (d *fakeDirectory) GroupByID(id string) (models.Group, bool) {
	g, ok := d.groups[id]
	return g, ok
}

func emptyDirectory() *fakeDirectory {
	return &fakeDirectory{users: map[string]models.User{}, groups: map[string]models.Group{}}
}

func TestStatusWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		lastSeen time.Time
		want     string
	}{
		{"just now", now, StatusActive},
		{"under window", now.Add(-4*time.Minute - 59*time.Second), StatusActive},
		{"exactly at window", now.Add(-5 * time.Minute), StatusActive},
		{"just past window", now.Add(-5*time.Minute - time.Second), StatusInactive},
		{"long gone", now.Add(-3 * time.Hour), StatusInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.lastSeen, now); got != tt.want {
				t.Errorf("Status(%v) = %s, want %s", tt.lastSeen, got, tt.want)
			}
		})
	}
}

func TestApplyReplacesWholeRecord(t *testing.T) {
	tr := NewTracker(client.New(""), "", emptyDirectory())
	stale := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	fresh := stale.Add(30 * time.Minute)

	tr.Apply(models.LocationRecord{UserID: "u1", Latitude: 21.42, Longitude: 39.82, LastSeenAt: stale})
	tr.Apply(models.LocationRecord{UserID: "u1", Latitude: 21.43, Longitude: 39.83, LastSeenAt: fresh})

	rec, ok := tr.Get("u1", fresh)
	if !ok {
		t.Fatal("record missing after apply")
	}
	if rec.Latitude != 21.43 || rec.Longitude != 39.83 {
		t.Errorf("record not replaced: %+v", rec.LocationRecord)
	}
	if !rec.LastSeenAt.Equal(fresh) {
		t.Errorf("last seen not replaced: %v", rec.LastSeenAt)
	}
}

func TestSnapshotEnriches(t *testing.T) {
	groupID := "g1"
	dir := &fakeDirectory{
		users: map[string]models.User{
			"u1": {ID: "u1", Name: "Ahmed", Phone: "+966501", Role: models.RoleAmir, GroupID: &groupID},
			"u2": {ID: "u2", Name: "Bilal", Phone: "+966502", Role: models.RolePilgrim},
		},
		groups: map[string]models.Group{
			"g1": {ID: "g1", Name: "Makkah A"},
		},
	}
	tr := NewTracker(client.New(""), "", dir)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tr.Apply(models.LocationRecord{UserID: "u2", Latitude: 21.40, Longitude: 39.80, LastSeenAt: now.Add(-10 * time.Minute)})
	tr.Apply(models.LocationRecord{UserID: "u1", Latitude: 21.42, Longitude: 39.82, LastSeenAt: now.Add(-time.Minute)})
	tr.Apply(models.LocationRecord{UserID: "u3", Latitude: 21.44, Longitude: 39.84, LastSeenAt: now})

	got := tr.Snapshot(now)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].UserID != "u1" || got[1].UserID != "u2" || got[2].UserID != "u3" {
		t.Fatalf("snapshot not sorted by user id: %+v", got)
	}

	if got[0].Name != "Ahmed" || got[0].GroupName != "Makkah A" || got[0].Status != StatusActive {
		t.Errorf("amir not enriched: %+v", got[0])
	}
	if got[0].GroupColor != GroupColor("g1") {
		t.Errorf("group color not derived: %q", got[0].GroupColor)
	}
	if got[1].Status != StatusInactive {
		t.Errorf("expected u2 inactive, got %s", got[1].Status)
	}
	if got[1].GroupName != "" || got[1].GroupColor != "" {
		t.Errorf("ungrouped user must have no group fields, got %+v", got[1])
	}
	// Unknown users still appear with their raw coordinates.
	if got[2].Name != "" || got[2].Latitude != 21.44 {
		t.Errorf("unknown user mishandled: %+v", got[2])
	}
}

func TestGroupColorStable(t *testing.T) {
	first := GroupColor("g1")
	if len(first) != 7 || !strings.HasPrefix(first, "#") {
		t.Fatalf("expected a marker hex color, got %q", first)
	}
	for i := 0; i < 5; i++ {
		if GroupColor("g1") != first {
			t.Fatal("a group id must always map to the same color")
		}
	}
}

func TestStartLoadsAndStreams(t *testing.T) {
	now := time.Now()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	var mu sync.Mutex
	var serverConn *websocket.Conn

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/locations", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"locations": []models.LocationRecord{
				{UserID: "u1", Latitude: 21.42, Longitude: 39.82, LastSeenAt: now},
				{UserID: "u9", Latitude: 0, Longitude: 0, LastSeenAt: now},
			},
		})
	})
	mux.HandleFunc("/ws/location", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		serverConn = conn
		mu.Unlock()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	api := client.New(server.URL)
	api.SetToken("test-token")
	tr := NewTracker(api, "ws"+strings.TrimPrefix(server.URL, "http"), emptyDirectory())
	t.Cleanup(tr.Stop)

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	got := tr.Snapshot(now)
	if len(got) != 1 || got[0].UserID != "u1" {
		t.Fatalf("expected only the non-zero record, got %+v", got)
	}

	// Stream an update and wait for it to land.
	var conn *websocket.Conn
	connDeadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(connDeadline) {
		mu.Lock()
		conn = serverConn
		mu.Unlock()
		if conn != nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if conn == nil {
		t.Fatal("server never saw the websocket connection")
	}
	conn.WriteJSON(services.LocationEvent{
		Event: services.EventLocationUpdated,
		Location: &models.LocationRecord{
			UserID: "u2", Latitude: 24.47, Longitude: 39.61, LastSeenAt: now,
		},
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := tr.Get("u2", now); ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	rec, ok := tr.Get("u2", now)
	if !ok {
		t.Fatal("streamed record never arrived")
	}
	if rec.Latitude != 24.47 {
		t.Errorf("unexpected record %+v", rec.LocationRecord)
	}
}
