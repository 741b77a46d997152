// Package session holds the dashboard's collection state: the
// authenticated user, the mirrored user/group/dua collections, and the
// confirmed-update mutation helpers that keep them consistent with the
// backend. One Session is constructed at startup and passed by
// reference to every view; there is no ambient global store.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"umrah-companion-backend/client"
	"umrah-companion-backend/internal/models"

	"github.com/rs/zerolog"
)

// ActivityEntry is one line of the dashboard's activity log
type ActivityEntry struct {
	At      time.Time
	Message string
}

// Session is the dashboard's source of truth between server round trips.
// Mutation helpers apply confirmed server state only: nothing changes
// locally until the remote call succeeds, and the server record always
// replaces the local one.
type Session struct {
	api *client.Client
	log zerolog.Logger

	Me         *models.User
	Users      []models.User
	Groups     []models.Group
	Duas       []models.Dua
	Categories []string
	Activity   []ActivityEntry

	// Generated passwords kept for display/copy only, keyed by user id.
	// Never authoritative: a password returned by the server wins.
	passwords map[string]string
}

// New creates a session around a REST client
func New(api *client.Client, logger zerolog.Logger) *Session {
	return &Session{
		api:       api,
		log:       logger,
		passwords: make(map[string]string),
	}
}

// Login authenticates and loads the initial collections
func (s *Session) Login(ctx context.Context, phone, password string) error {
	result, err := s.api.Login(ctx, phone, password)
	if err != nil {
		return err
	}
	s.Me = result.User
	s.record("Logged in as " + result.User.Name)
	return s.Refresh(ctx)
}

// Logout drops the token and collection state
func (s *Session) Logout() {
	s.api.SetToken("")
	s.Me = nil
	s.Users = nil
	s.Groups = nil
	s.Duas = nil
	s.Activity = nil
}

// Authenticated reports whether a token is held
func (s *Session) Authenticated() bool { return s.api.Token() != "" }

// Refresh reloads every mirrored collection
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.RefreshUsers(ctx); err != nil {
		return err
	}
	if err := s.RefreshGroups(ctx); err != nil {
		return err
	}
	return s.RefreshDuas(ctx)
}

// RefreshUsers reloads the user collection
func (s *Session) RefreshUsers(ctx context.Context) error {
	users, err := s.api.ListUsers(ctx)
	if err != nil {
		return err
	}
	s.Users = users
	return nil
}

// RefreshGroups reloads the group collection, normalizing each group so
// its designated leader always appears in the member list.
func (s *Session) RefreshGroups(ctx context.Context) error {
	groups, err := s.api.ListGroups(ctx)
	if err != nil {
		return err
	}
	normalized := make([]models.Group, 0, len(groups))
	for i := range groups {
		normalized = append(normalized, *NormalizeGroup(&groups[i], s.Users))
	}
	s.Groups = normalized
	return nil
}

// RefreshDuas reloads the dua collection and category list. Translations
// come back already normalized to the structured form; unparsable
// payloads degrade to empty strings rather than failing the refresh.
func (s *Session) RefreshDuas(ctx context.Context) error {
	duas, err := s.api.ListDuas(ctx, "")
	if err != nil {
		return err
	}
	s.Duas = duas

	categories, err := s.api.DuaCategories(ctx)
	if err != nil {
		return err
	}
	s.Categories = categories
	return nil
}

// refreshGroupsBestEffort reloads groups after a user mutation that may
// have changed membership. Failure is swallowed: the primary operation
// already succeeded.
func (s *Session) refreshGroupsBestEffort(ctx context.Context) {
	if err := s.RefreshGroups(ctx); err != nil {
		s.log.Warn().Err(err).Msg("group refresh after user mutation failed")
	}
}

func validateUserInput(in *client.UserInput) error {
	if strings.TrimSpace(in.Phone) == "" {
		return fmt.Errorf("phone is required")
	}
	if in.Role == models.RoleAmir && (in.GroupID == nil || *in.GroupID == "") {
		return fmt.Errorf("an amir must be assigned to a group")
	}
	return nil
}

// AddUser creates a user remotely and merges the confirmed record. When
// no password is supplied one is generated and cached for display.
func (s *Session) AddUser(ctx context.Context, in *client.UserInput) (*models.User, error) {
	if err := validateUserInput(in); err != nil {
		return nil, err
	}

	generated := ""
	if in.Password == "" {
		generated = GeneratePassword()
		in.Password = generated
	}

	user, err := s.api.CreateUser(ctx, in)
	if err != nil {
		return nil, err
	}

	s.Users = append(s.Users, *user)

	switch {
	case user.Password != "":
		s.passwords[user.ID] = user.Password
	case generated != "":
		s.passwords[user.ID] = generated
	}

	s.record("Added " + user.Role + " " + user.Name)
	s.refreshGroupsBestEffort(ctx)
	return user, nil
}

// EditUser updates a user remotely and replaces the local record
func (s *Session) EditUser(ctx context.Context, id string, in *client.UserInput) (*models.User, error) {
	if err := validateUserInput(in); err != nil {
		return nil, err
	}

	user, err := s.api.UpdateUser(ctx, id, in)
	if err != nil {
		return nil, err
	}

	for i := range s.Users {
		if s.Users[i].ID == id {
			s.Users[i] = *user
			break
		}
	}

	s.record("Updated user " + user.Name)
	s.refreshGroupsBestEffort(ctx)
	return user, nil
}

// RemoveUser deletes a user remotely and drops the local record
func (s *Session) RemoveUser(ctx context.Context, id string) error {
	if err := s.api.DeleteUser(ctx, id); err != nil {
		return err
	}

	name := id
	kept := s.Users[:0]
	for _, u := range s.Users {
		if u.ID == id {
			name = u.Name
			continue
		}
		kept = append(kept, u)
	}
	s.Users = kept
	delete(s.passwords, id)

	s.record("Removed user " + name)
	s.refreshGroupsBestEffort(ctx)
	return nil
}

// AddGroup creates a group remotely and merges the confirmed record
func (s *Session) AddGroup(ctx context.Context, in *client.GroupInput) (*models.Group, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("group name is required")
	}
	if in.AmirID == "" {
		return nil, fmt.Errorf("a leader must be selected")
	}

	group, err := s.api.CreateGroup(ctx, in)
	if err != nil {
		return nil, err
	}

	s.Groups = append(s.Groups, *NormalizeGroup(group, s.Users))
	s.record("Created group " + group.Name)
	return group, nil
}

// EditGroup updates a group remotely and replaces the local record
func (s *Session) EditGroup(ctx context.Context, id string, in *client.GroupInput) (*models.Group, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("group name is required")
	}

	group, err := s.api.UpdateGroup(ctx, id, in)
	if err != nil {
		return nil, err
	}

	normalized := *NormalizeGroup(group, s.Users)
	for i := range s.Groups {
		if s.Groups[i].ID == id {
			s.Groups[i] = normalized
			break
		}
	}

	s.record("Updated group " + group.Name)
	return group, nil
}

// RemoveGroup deletes a group remotely and drops the local record.
// Membership is server-computed, so the user collection is reloaded
// best-effort afterwards.
func (s *Session) RemoveGroup(ctx context.Context, id string) error {
	if err := s.api.DeleteGroup(ctx, id); err != nil {
		return err
	}

	name := id
	kept := s.Groups[:0]
	for _, g := range s.Groups {
		if g.ID == id {
			name = g.Name
			continue
		}
		kept = append(kept, g)
	}
	s.Groups = kept

	s.record("Deleted group " + name)
	if err := s.RefreshUsers(ctx); err != nil {
		s.log.Warn().Err(err).Msg("user refresh after group delete failed")
	}
	return nil
}

// GeneratedPassword returns the locally cached password for a user, if
// one was generated or returned at creation time.
func (s *Session) GeneratedPassword(userID string) (string, bool) {
	pw, ok := s.passwords[userID]
	return pw, ok
}

// UserByID looks a user up in the mirrored collection
func (s *Session) UserByID(id string) (models.User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

// GroupByID looks a group up in the mirrored collection
func (s *Session) GroupByID(id string) (models.Group, bool) {
	for _, g := range s.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return models.Group{}, false
}

func (s *Session) record(message string) {
	s.Activity = append(s.Activity, ActivityEntry{At: time.Now(), Message: message})
}
