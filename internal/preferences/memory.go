package preferences

import (
	"context"
	"sync"
	"time"

	"github.com/benvon/levelup-ai/internal/models"
)

// MemoryStore keeps preferences in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	prefs map[string]*models.Preferences
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prefs: make(map[string]*models.Preferences)}
}

// Get implements Store
func (s *MemoryStore) Get(_ context.Context, userID string) (*models.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs[userID].Clone(), nil
}

// Merge implements Store
func (s *MemoryStore) Merge(_ context.Context, userID string, update models.PreferencesUpdate) (*models.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.prefs[userID]
	if !ok {
		p = &models.Preferences{}
		s.prefs[userID] = p
	}
	update.Apply(p)
	now := time.Now()
	p.UpdatedAt = &now
	return p.Clone(), nil
}

// Ping implements Store
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
