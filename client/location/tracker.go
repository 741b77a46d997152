// Package location maintains the latest known position per user for the
// live map, combining an initial bulk fetch with incremental push
// updates.
package location

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"umrah-companion-backend/client"
	"umrah-companion-backend/internal/models"
	"umrah-companion-backend/internal/services"

	"github.com/gorilla/websocket"
)

// Freshness status values
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

const activeWindow = 5 * time.Minute

// Status derives a record's freshness from wall-clock time. The value
// is recomputed on every read and never stored: a user seen four
// minutes ago goes inactive two minutes later without any new event.
// The five-minute boundary itself counts as active.
func Status(lastSeen, now time.Time) string {
	if now.Sub(lastSeen) <= activeWindow {
		return StatusActive
	}
	return StatusInactive
}

// Directory resolves user and group profiles for enrichment. The
// session store satisfies it.
type Directory interface {
	UserByID(id string) (models.User, bool)
	GroupByID(id string) (models.Group, bool)
}

// EnrichedLocation is a location record joined with directory data and
// a freshness status computed at read time.
type EnrichedLocation struct {
	models.LocationRecord
	Name       string
	Phone      string
	Role       string
	GroupID    string
	GroupName  string
	GroupColor string
	Status     string
}

// groupPalette colors map markers per group
var groupPalette = []string{
	"#E53935", "#8E24AA", "#3949AB", "#039BE5", "#00897B",
	"#7CB342", "#FDD835", "#FB8C00", "#6D4C41", "#546E7A",
}

// GroupColor derives a stable marker color from a group id
func GroupColor(groupID string) string {
	h := fnv.New32a()
	h.Write([]byte(groupID))
	return groupPalette[h.Sum32()%uint32(len(groupPalette))]
}

// Tracker holds the latest location per user for the lifetime of the
// map view.
type Tracker struct {
	api       *client.Client
	wsURL     string
	directory Directory

	mu      sync.Mutex
	records map[string]models.LocationRecord
	conn    *websocket.Conn
}

// NewTracker creates a location tracker
func NewTracker(api *client.Client, wsURL string, directory Directory) *Tracker {
	return &Tracker{
		api:       api,
		wsURL:     wsURL,
		directory: directory,
		records:   make(map[string]models.LocationRecord),
	}
}

// Start performs the bulk fetch and opens the live channel. Records
// with neither coordinate set are discarded.
func (t *Tracker) Start(ctx context.Context) error {
	if t.api.Token() == "" {
		return fmt.Errorf("not authenticated")
	}

	records, err := t.api.ListLocations(ctx)
	if err != nil {
		return err
	}

	byUser := make(map[string]models.LocationRecord, len(records))
	for _, rec := range records {
		if rec.Latitude == 0 && rec.Longitude == 0 {
			continue
		}
		byUser[rec.UserID] = rec
	}

	url := fmt.Sprintf("%s/ws/location?token=%s", t.wsURL, t.api.Token())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect location channel: %w", err)
	}

	t.mu.Lock()
	t.records = byUser
	t.conn = conn
	t.mu.Unlock()

	go t.readLoop(conn)
	return nil
}

// Stop closes the live channel
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}

// Apply replaces the stored entry for the incoming record's user. The
// whole record is replaced, never field-merged.
func (t *Tracker) Apply(rec models.LocationRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[rec.UserID] = rec
}

// Snapshot returns every tracked location enriched with directory data
// and a freshness status computed against the given time, ordered by
// user id.
func (t *Tracker) Snapshot(now time.Time) []EnrichedLocation {
	t.mu.Lock()
	records := make([]models.LocationRecord, 0, len(t.records))
	for _, rec := range t.records {
		records = append(records, rec)
	}
	t.mu.Unlock()

	out := make([]EnrichedLocation, 0, len(records))
	for _, rec := range records {
		out = append(out, t.enrich(rec, now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Get returns one user's enriched location
func (t *Tracker) Get(userID string, now time.Time) (EnrichedLocation, bool) {
	t.mu.Lock()
	rec, ok := t.records[userID]
	t.mu.Unlock()
	if !ok {
		return EnrichedLocation{}, false
	}
	return t.enrich(rec, now), true
}

// enrich joins a record with directory data; the enrichment is computed
// fresh on every read, never cached on the record.
func (t *Tracker) enrich(rec models.LocationRecord, now time.Time) EnrichedLocation {
	enriched := EnrichedLocation{
		LocationRecord: rec,
		Status:         Status(rec.LastSeenAt, now),
	}

	user, ok := t.directory.UserByID(rec.UserID)
	if !ok {
		return enriched
	}
	enriched.Name = user.Name
	enriched.Phone = user.Phone
	enriched.Role = user.Role

	if user.GroupID != nil {
		if group, ok := t.directory.GroupByID(*user.GroupID); ok {
			enriched.GroupID = group.ID
			enriched.GroupName = group.Name
			enriched.GroupColor = GroupColor(group.ID)
		}
	}
	return enriched
}

func (t *Tracker) readLoop(conn *websocket.Conn) {
	for {
		var ev services.LocationEvent
		if err := conn.ReadJSON(&ev); err != nil {
			return
		}
		if ev.Event != services.EventLocationUpdated || ev.Location == nil {
			continue
		}
		t.Apply(*ev.Location)
	}
}
