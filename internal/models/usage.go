package models

import "fmt"

// UsageKey identifies a usage counter: one user on one calendar day
type UsageKey struct {
	UserID string
	Day    string // server-local date, YYYY-MM-DD
}

func (k UsageKey) String() string {
	return fmt.Sprintf("%s_%s", k.UserID, k.Day)
}

// Usage is the quota snapshot reported to clients
type Usage struct {
	Usage     int `json:"usage"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// NewUsage builds a snapshot, clamping remaining at zero
func NewUsage(count, limit int) Usage {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Usage{Usage: count, Limit: limit, Remaining: remaining}
}
