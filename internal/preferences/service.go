package preferences

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/levelup-ai/internal/models"
)

// DefaultLanguage is the output language used when a user has not chosen one
const DefaultLanguage = "French"

// Service reads and merges preferences, filling in the default output language
type Service struct {
	store           Store
	defaultLanguage string
}

// NewService creates a service; an empty defaultLanguage falls back to DefaultLanguage
func NewService(store Store, defaultLanguage string) *Service {
	if strings.TrimSpace(defaultLanguage) == "" {
		defaultLanguage = DefaultLanguage
	}
	return &Service{store: store, defaultLanguage: defaultLanguage}
}

// Get returns the user's preferences. A user with no record gets the defaults.
func (s *Service) Get(ctx context.Context, userID string) (*models.Preferences, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, models.ErrUnauthenticated
	}
	prefs, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return s.withDefaults(prefs), nil
}

// Update merges the provided fields into the user's preferences
func (s *Service) Update(ctx context.Context, userID string, update models.PreferencesUpdate) (*models.Preferences, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, models.ErrUnauthenticated
	}
	update = trimUpdate(update)
	if update.IsEmpty() {
		return s.Get(ctx, userID)
	}
	prefs, err := s.store.Merge(ctx, userID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}
	return s.withDefaults(prefs), nil
}

// Language returns the output language for userID
func (s *Service) Language(ctx context.Context, userID string) (string, error) {
	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return prefs.DefaultLanguage, nil
}

// Ping checks the underlying store
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) withDefaults(prefs *models.Preferences) *models.Preferences {
	if prefs == nil {
		prefs = &models.Preferences{}
	}
	if prefs.DefaultLanguage == "" {
		prefs.DefaultLanguage = s.defaultLanguage
	}
	return prefs
}

func trimUpdate(u models.PreferencesUpdate) models.PreferencesUpdate {
	return models.PreferencesUpdate{
		Name:            strings.TrimSpace(u.Name),
		Email:           strings.TrimSpace(u.Email),
		DefaultLanguage: strings.TrimSpace(u.DefaultLanguage),
	}
}
