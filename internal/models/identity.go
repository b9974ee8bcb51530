package models

import "time"

// Identity is the caller described by a verified id-token. UserID is the
// value the quota tracker and preference store are keyed by.
type Identity struct {
	UserID    string    `json:"uid"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	Issuer    string    `json:"iss"`
	Audience  string    `json:"aud,omitempty"`
	ExpiresAt time.Time `json:"exp"`
}
