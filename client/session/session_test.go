package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"umrah-companion-backend/client"
	"umrah-companion-backend/internal/models"

	"github.com/rs/zerolog"
)

// fakeBackend is a minimal REST stand-in for the mutation-helper tests.
type fakeBackend struct {
	mux          *http.ServeMux
	groupsBroken bool
	groupLoads   int
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	b := &fakeBackend{mux: http.NewServeMux()}

	b.mux.HandleFunc("POST /api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		var in client.UserInput
		json.NewDecoder(r.Body).Decode(&in)
		user := models.User{
			ID:       "srv-1",
			Name:     in.Name,
			Phone:    in.Phone,
			Role:     in.Role,
			GroupID:  in.GroupID,
			Password: in.Password,
		}
		if user.Role == "" {
			user.Role = models.RolePilgrim
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(user)
	})
	b.mux.HandleFunc("DELETE /api/v1/users/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	b.mux.HandleFunc("GET /api/v1/groups", func(w http.ResponseWriter, r *http.Request) {
		b.groupLoads++
		if b.groupsBroken {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"boom"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"groups": []models.Group{}})
	})

	server := httptest.NewServer(b.mux)
	t.Cleanup(server.Close)
	return b, server
}

func newTestSession(server *httptest.Server) *Session {
	api := client.New(server.URL)
	api.SetToken("test-token")
	return New(api, zerolog.Nop())
}

func TestAddUserValidationBeforeNetwork(t *testing.T) {
	// No server at all: validation must fail before any call is made.
	api := client.New("http://127.0.0.1:0")
	s := New(api, zerolog.Nop())

	if _, err := s.AddUser(context.Background(), &client.UserInput{Name: "A"}); err == nil {
		t.Fatal("expected phone validation error")
	}
	if _, err := s.AddUser(context.Background(), &client.UserInput{Phone: "+1", Role: models.RoleAmir}); err == nil {
		t.Fatal("expected amir-without-group validation error")
	}
	if len(s.Users) != 0 {
		t.Fatal("validation failure must not touch local state")
	}
}

func TestAddUserMergesConfirmedRecord(t *testing.T) {
	_, server := newFakeBackend(t)
	s := newTestSession(server)

	user, err := s.AddUser(context.Background(), &client.UserInput{Name: "Bilal", Phone: "+1555"})
	if err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	if user.ID != "srv-1" {
		t.Errorf("expected server id, got %s", user.ID)
	}
	if len(s.Users) != 1 || s.Users[0].ID != "srv-1" {
		t.Fatalf("confirmed record not merged: %+v", s.Users)
	}
	if len(s.Activity) == 0 {
		t.Error("expected an activity log entry")
	}
}

func TestAddUserCachesGeneratedPassword(t *testing.T) {
	_, server := newFakeBackend(t)
	s := newTestSession(server)

	user, err := s.AddUser(context.Background(), &client.UserInput{Name: "Bilal", Phone: "+1555"})
	if err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}

	pw, ok := s.GeneratedPassword(user.ID)
	if !ok {
		t.Fatal("expected a cached password for the new user")
	}
	if len(pw) != 10 {
		t.Fatalf("expected 10-character password, got %d", len(pw))
	}
	// The fake backend echoes the submitted password, so the server
	// value and the cache agree.
	if user.Password != pw {
		t.Fatalf("server password %q should win and match cache %q", user.Password, pw)
	}
}

func TestAddUserSwallowsGroupRefreshFailure(t *testing.T) {
	b, server := newFakeBackend(t)
	b.groupsBroken = true
	s := newTestSession(server)

	if _, err := s.AddUser(context.Background(), &client.UserInput{Name: "Bilal", Phone: "+1555"}); err != nil {
		t.Fatalf("primary operation must succeed despite refresh failure: %v", err)
	}
	if b.groupLoads != 1 {
		t.Fatalf("expected one group refresh attempt, got %d", b.groupLoads)
	}
	if len(s.Users) != 1 {
		t.Fatal("confirmed user record missing")
	}
}

func TestRemoveUserFiltersRecord(t *testing.T) {
	_, server := newFakeBackend(t)
	s := newTestSession(server)
	s.Users = []models.User{
		{ID: "u1", Name: "Ahmed"},
		{ID: "u2", Name: "Bilal"},
	}
	s.passwords["u2"] = "cached"

	if err := s.RemoveUser(context.Background(), "u2"); err != nil {
		t.Fatalf("RemoveUser failed: %v", err)
	}
	if len(s.Users) != 1 || s.Users[0].ID != "u1" {
		t.Fatalf("expected only u1 left, got %+v", s.Users)
	}
	if _, ok := s.GeneratedPassword("u2"); ok {
		t.Error("cached password should be dropped with the user")
	}
}

func TestRefreshGroupsNormalizes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/groups", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"groups": []models.Group{{ID: "g1", Name: "Makkah A", Amir: "Ahmed"}},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	s := newTestSession(server)
	s.Users = []models.User{{ID: "u1", Name: "Ahmed", Phone: "+1"}}

	if err := s.RefreshGroups(context.Background()); err != nil {
		t.Fatalf("RefreshGroups failed: %v", err)
	}
	if len(s.Groups) != 1 {
		t.Fatalf("expected one group, got %d", len(s.Groups))
	}
	if len(s.Groups[0].Members) != 1 || s.Groups[0].Members[0].ID != "u1" {
		t.Fatalf("group was not normalized: %+v", s.Groups[0])
	}
}
