package models

import (
	"encoding/json"
	"time"
)

// Role values for users
const (
	RolePilgrim = "pilgrim"
	RoleAmir    = "amir"
	RoleAdmin   = "admin"
)

// User represents a pilgrim, amir or admin account
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	GroupID   *string   `json:"group_id,omitempty"`
	GroupName string    `json:"group_name,omitempty"`
	Password  string    `json:"password,omitempty"`
	PushToken *string   `json:"push_token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberRef is the subset-of-User projection embedded in a group
type MemberRef struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Group represents a pilgrimage group with one designated leader (amir)
type Group struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Amir          string      `json:"amir"`
	AmirID        *string     `json:"amir_id,omitempty"`
	Members       []MemberRef `json:"members"`
	TotalMembers  int         `json:"total_members"`
	ActiveMembers int         `json:"active_members"`
	Location      string      `json:"location,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	LastActivity  time.Time   `json:"last_activity"`
}

// Sender identifies the author of a chat message
type Sender struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// ChatMessage represents one message in a group chat
type ChatMessage struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	Sender    Sender    `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
	IsEdited  bool      `json:"is_edited"`
	IsDeleted bool      `json:"is_deleted"`
}

// LocationRecord is the latest known position of a user
type LocationRecord struct {
	UserID     string    `json:"user_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// Translation holds the multilingual rendering of a dua.
//
// The backend historically stored this field either as a JSON object or
// as a string containing serialized JSON, so the type accepts both on
// decode. Anything unparsable degrades to the empty triple, never an
// error.
type Translation struct {
	English string `json:"english"`
	Amharic string `json:"amharic"`
	Oromo   string `json:"oromo"`
}

// UnmarshalJSON accepts either the structured object form or a
// double-encoded string form of the translation payload.
func (t *Translation) UnmarshalJSON(data []byte) error {
	*t = Translation{}

	type plain Translation
	var obj plain
	if err := json.Unmarshal(data, &obj); err == nil {
		*t = Translation(obj)
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil
	}
	*t = Translation(obj)
	return nil
}

// ParseTranslation normalizes a raw translation payload into the
// structured form. Parse failure yields the empty triple.
func ParseTranslation(raw string) Translation {
	var t Translation
	_ = json.Unmarshal([]byte(raw), &t)
	return t
}

// Dua represents a devotional prayer with translations and optional audio
type Dua struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Arabic      string      `json:"arabic"`
	Translation Translation `json:"translation"`
	Category    string      `json:"category"`
	AudioURL    string      `json:"audio_url,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Place represents a point of interest shown on the pilgrim map
type Place struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Guide represents a step-by-step pilgrimage guide entry
type Guide struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Category   string    `json:"category"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}
