package quota

import (
	"context"
	"sync"
	"time"

	"github.com/benvon/levelup-ai/internal/models"
	"go.uber.org/zap"
)

// MemoryStore keeps counters in process memory. Counts are lost on restart.
type MemoryStore struct {
	mu     sync.Mutex
	counts map[models.UsageKey]int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: make(map[models.UsageKey]int)}
}

// IncrementIfBelow implements Store
func (s *MemoryStore) IncrementIfBelow(_ context.Context, key models.UsageKey, limit int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.counts[key]
	if count >= limit {
		return count, false, nil
	}
	count++
	s.counts[key] = count
	return count, true, nil
}

// Count implements Store
func (s *MemoryStore) Count(_ context.Context, key models.UsageKey) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[key], nil
}

// Reset implements Store
func (s *MemoryStore) Reset(_ context.Context, key models.UsageKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counts, key)
	return nil
}

// Ping implements Store
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Prune drops every counter whose day is before keepFrom (YYYY-MM-DD) and returns how many were removed
func (s *MemoryStore) Prune(keepFrom string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.counts {
		// Lexical order matches chronological order for YYYY-MM-DD.
		if key.Day < keepFrom {
			delete(s.counts, key)
			removed++
		}
	}
	return removed
}

// StartJanitor prunes previous days every interval until ctx is cancelled
func (s *MemoryStore) StartJanitor(ctx context.Context, tracker *Tracker, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.Prune(tracker.Today()); removed > 0 && logger != nil {
					logger.Debug("quota_counters_pruned", zap.Int("removed", removed))
				}
			}
		}
	}()
}
