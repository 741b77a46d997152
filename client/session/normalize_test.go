package session

import (
	"reflect"
	"testing"
	"time"

	"umrah-companion-backend/internal/models"
)

func memberList(g *models.Group) []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestNormalizeNilGroup(t *testing.T) {
	if got := NormalizeGroup(nil, nil); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestNormalizeLeaderAlreadyPresent(t *testing.T) {
	amirID := "u1"
	group := &models.Group{
		ID:     "g1",
		Amir:   "Ahmed",
		AmirID: &amirID,
		Members: []models.MemberRef{
			{ID: "u1", Name: "Ahmed", Role: models.RoleAmir},
			{ID: "u2", Name: "Bilal", Role: models.RolePilgrim},
		},
		TotalMembers: 2,
	}

	out := NormalizeGroup(group, nil)
	if len(out.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(out.Members))
	}
	if out.TotalMembers != 2 {
		t.Fatalf("expected totalMembers 2, got %d", out.TotalMembers)
	}
}

func TestNormalizeResolvesLeaderFromUserList(t *testing.T) {
	// Empty member list, leader known only by display name.
	group := &models.Group{ID: "g1", Amir: "Ahmed"}
	users := []models.User{
		{ID: "u1", Name: "Ahmed", Phone: "+15550001"},
	}

	out := NormalizeGroup(group, users)
	if len(out.Members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(out.Members))
	}
	leader := out.Members[0]
	if leader.ID != "u1" {
		t.Errorf("leader id: expected u1, got %s", leader.ID)
	}
	if leader.Role != models.RoleAmir {
		t.Errorf("leader role: expected amir, got %s", leader.Role)
	}
	if leader.Phone != "+15550001" {
		t.Errorf("leader phone not carried over: %s", leader.Phone)
	}
	if out.TotalMembers != 1 {
		t.Errorf("totalMembers: expected 1, got %d", out.TotalMembers)
	}
}

func TestNormalizeSynthesizesPlaceholder(t *testing.T) {
	group := &models.Group{ID: "g7", Amir: "Unknown Leader"}

	out := NormalizeGroup(group, nil)
	if len(out.Members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(out.Members))
	}
	leader := out.Members[0]
	if leader.ID != "amir-g7" {
		t.Errorf("placeholder id: expected amir-g7, got %s", leader.ID)
	}
	if leader.Role != models.RoleAmir {
		t.Errorf("placeholder role: expected amir, got %s", leader.Role)
	}
	if leader.Phone != "" {
		t.Errorf("placeholder phone must be empty, got %q", leader.Phone)
	}
}

func TestNormalizeLeaderPrepended(t *testing.T) {
	group := &models.Group{
		ID:   "g1",
		Amir: "Ahmed",
		Members: []models.MemberRef{
			{ID: "u2", Name: "Bilal", Role: models.RolePilgrim},
			{ID: "u3", Name: "Yusuf", Role: models.RolePilgrim},
		},
		TotalMembers: 2,
	}
	users := []models.User{{ID: "u1", Name: "Ahmed"}}

	out := NormalizeGroup(group, users)
	want := []string{"u1", "u2", "u3"}
	if got := memberList(out); !reflect.DeepEqual(got, want) {
		t.Fatalf("member order: expected %v, got %v", want, got)
	}
	if out.TotalMembers != 3 {
		t.Fatalf("totalMembers: expected 3, got %d", out.TotalMembers)
	}
}

func TestNormalizeKeepsLargerTotal(t *testing.T) {
	group := &models.Group{
		ID:           "g1",
		Amir:         "Ahmed",
		Members:      []models.MemberRef{{ID: "u1", Name: "Ahmed"}},
		TotalMembers: 9,
	}

	out := NormalizeGroup(group, nil)
	if out.TotalMembers != 9 {
		t.Fatalf("expected existing larger total kept, got %d", out.TotalMembers)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	groups := []*models.Group{
		{ID: "g1", Amir: "Ahmed"},
		{ID: "g2", Amir: "", Members: []models.MemberRef{{ID: "u2", Name: "Bilal"}}},
		{ID: "g3", Amir: "Ahmed", Members: []models.MemberRef{{ID: "u9", Name: "Other"}}},
	}
	users := []models.User{{ID: "u1", Name: "Ahmed", CreatedAt: time.Now()}}

	for _, group := range groups {
		once := NormalizeGroup(group, users)
		twice := NormalizeGroup(once, users)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("group %s: second application changed the result:\n%+v\n%+v", group.ID, once, twice)
		}
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	group := &models.Group{ID: "g1", Amir: "Ahmed"}
	NormalizeGroup(group, nil)
	if len(group.Members) != 0 {
		t.Fatal("input group was mutated")
	}
}

func TestNormalizeIDMatchBeatsNameMatch(t *testing.T) {
	// amirId points at u2 even though the stored name matches u9.
	amirID := "u2"
	group := &models.Group{
		ID:     "g1",
		Amir:   "Ahmed",
		AmirID: &amirID,
		Members: []models.MemberRef{
			{ID: "u2", Name: "Someone Else", Role: models.RolePilgrim},
		},
		TotalMembers: 1,
	}
	users := []models.User{{ID: "u9", Name: "Ahmed"}}

	out := NormalizeGroup(group, users)
	// The id match short-circuits: nothing is prepended.
	if len(out.Members) != 1 || out.Members[0].ID != "u2" {
		t.Fatalf("expected id-based match to win, got %v", memberList(out))
	}
}

func TestNormalizeNameMatchBeatsRoleMatch(t *testing.T) {
	group := &models.Group{
		ID:   "g1",
		Amir: "Ahmed",
	}
	users := []models.User{
		{ID: "u5", Name: "Zayd", Role: models.RoleAmir},
		{ID: "u6", Name: "Ahmed", Role: models.RolePilgrim},
	}

	out := NormalizeGroup(group, users)
	if out.Members[0].ID != "u6" {
		t.Fatalf("expected name match u6, got %s", out.Members[0].ID)
	}
}
