package quota

import (
	"context"

	"github.com/benvon/levelup-ai/internal/models"
)

// Store persists per-user daily counters.
// IncrementIfBelow must be atomic: the check against limit and the increment happen
// as one operation, so concurrent callers can never push a counter past limit.
type Store interface {
	// IncrementIfBelow increments the counter for key when it is below limit.
	// It returns the post-increment count when allowed, or the unchanged count otherwise.
	IncrementIfBelow(ctx context.Context, key models.UsageKey, limit int) (count int, allowed bool, err error)
	// Count returns the current counter value (0 when absent).
	Count(ctx context.Context, key models.UsageKey) (int, error)
	// Reset removes the counter for key.
	Reset(ctx context.Context, key models.UsageKey) error
	// Ping checks backend availability.
	Ping(ctx context.Context) error
}
