package preferences

import (
	"context"

	"github.com/benvon/levelup-ai/internal/models"
)

// Store persists per-user preferences
type Store interface {
	// Get returns the stored preferences, or nil when the user has none.
	Get(ctx context.Context, userID string) (*models.Preferences, error)
	// Merge applies the non-empty fields of update, creating the record when absent,
	// and returns the merged result.
	Merge(ctx context.Context, userID string, update models.PreferencesUpdate) (*models.Preferences, error)
	// Ping checks backend availability.
	Ping(ctx context.Context) error
}
