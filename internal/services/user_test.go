package services

import (
	"strings"
	"testing"

	"umrah-companion-backend/internal/models"
)

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		pw := GeneratePassword()
		if len(pw) != passwordLength {
			t.Fatalf("expected %d characters, got %d", passwordLength, len(pw))
		}
		for _, r := range pw {
			if !strings.ContainsRune(passwordChars, r) {
				t.Fatalf("character %q outside allowed set", r)
			}
		}
		if strings.ContainsAny(pw, "0O1lI") {
			t.Fatalf("password %q contains ambiguous characters", pw)
		}
		seen[pw] = true
	}
	if len(seen) < 45 {
		t.Fatalf("passwords look far from random: %d distinct of 50", len(seen))
	}
}

func TestJWTRoundTrip(t *testing.T) {
	s := NewUserService(nil, nil, "test-secret")

	token, err := s.GenerateJWT("u1", models.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	userID, role, err := s.ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT failed: %v", err)
	}
	if userID != "u1" {
		t.Errorf("user id: expected u1, got %s", userID)
	}
	if role != models.RoleAdmin {
		t.Errorf("role: expected admin, got %s", role)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer := NewUserService(nil, nil, "secret-a")
	verifier := NewUserService(nil, nil, "secret-b")

	token, err := issuer.GenerateJWT("u1", models.RolePilgrim)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	if _, _, err := verifier.ValidateJWT(token); err == nil {
		t.Fatal("expected validation to fail for wrong secret")
	}
}

func TestCreateUserRequestValidate(t *testing.T) {
	group := "g1"
	cases := []struct {
		name    string
		req     CreateUserRequest
		wantErr bool
	}{
		{"missing phone", CreateUserRequest{Name: "A"}, true},
		{"blank phone", CreateUserRequest{Phone: "   "}, true},
		{"amir without group", CreateUserRequest{Phone: "+1", Role: models.RoleAmir}, true},
		{"amir with group", CreateUserRequest{Phone: "+1", Role: models.RoleAmir, GroupID: &group}, false},
		{"pilgrim without group", CreateUserRequest{Phone: "+1", Role: models.RolePilgrim}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
