package identity

import (
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
)

func TestIdentityFromFirebase(t *testing.T) {
	t.Parallel()

	expires := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	id := identityFromFirebase(&auth.Token{
		UID:      "fb-uid",
		Issuer:   "https://securetoken.google.com/levelup",
		Audience: "levelup",
		Expires:  expires.Unix(),
		Claims:   map[string]interface{}{"email": "ada@example.com", "name": "Ada", "picture": 42},
	})

	if id.UserID != "fb-uid" {
		t.Errorf("Expected uid fb-uid, got %q", id.UserID)
	}
	if id.Email != "ada@example.com" || id.Name != "Ada" {
		t.Errorf("Expected email and name from claims, got %q %q", id.Email, id.Name)
	}
	if id.Audience != "levelup" {
		t.Errorf("Expected audience levelup, got %q", id.Audience)
	}
	if !id.ExpiresAt.Equal(expires) {
		t.Errorf("Expected expiry %v, got %v", expires, id.ExpiresAt)
	}

	bare := identityFromFirebase(&auth.Token{UID: "anon"})
	if bare.Email != "" || bare.Name != "" {
		t.Errorf("Expected empty email and name without claims, got %+v", bare)
	}
}
