package models

import "time"

// Preferences holds the per-user display and output settings
type Preferences struct {
	Name            string     `json:"name,omitempty"`
	Email           string     `json:"email,omitempty"`
	DefaultLanguage string     `json:"defaultLanguage,omitempty"`
	UpdatedAt       *time.Time `json:"-"`
}

// PreferencesUpdate is a partial update; empty fields are left untouched
type PreferencesUpdate struct {
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	DefaultLanguage string `json:"defaultLanguage,omitempty"`
}

// IsEmpty reports whether the update carries no field to merge
func (u PreferencesUpdate) IsEmpty() bool {
	return u.Name == "" && u.Email == "" && u.DefaultLanguage == ""
}

// Apply merges the non-empty fields of u into p
func (u PreferencesUpdate) Apply(p *Preferences) {
	if u.Name != "" {
		p.Name = u.Name
	}
	if u.Email != "" {
		p.Email = u.Email
	}
	if u.DefaultLanguage != "" {
		p.DefaultLanguage = u.DefaultLanguage
	}
}

// Clone returns a copy safe to hand out of a store
func (p *Preferences) Clone() *Preferences {
	if p == nil {
		return nil
	}
	c := *p
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}
