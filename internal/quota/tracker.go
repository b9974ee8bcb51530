package quota

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/levelup-ai/internal/models"
)

// DayLayout is the calendar-day format used in usage keys
const DayLayout = "2006-01-02"

// DefaultLimit is the daily request ceiling per user
const DefaultLimit = 50

// Decision is the outcome of a CheckAndConsume call
type Decision struct {
	Allowed bool
	Count   int
	Limit   int
}

// Remaining returns how many requests the user has left today
func (d Decision) Remaining() int {
	return models.NewUsage(d.Count, d.Limit).Remaining
}

// Tracker gates requests against a fixed daily ceiling per user
type Tracker struct {
	store Store
	limit int
	now   func() time.Time
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock overrides the clock used to compute the current day
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates a tracker backed by store. A non-positive limit falls back to DefaultLimit.
func NewTracker(store Store, limit int, opts ...Option) *Tracker {
	if limit <= 0 {
		limit = DefaultLimit
	}
	t := &Tracker{store: store, limit: limit, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Limit returns the configured daily ceiling
func (t *Tracker) Limit() int {
	return t.limit
}

// Day returns the server-local calendar day for ts
func (t *Tracker) Day(ts time.Time) string {
	return ts.Local().Format(DayLayout)
}

// Today returns the current server-local calendar day
func (t *Tracker) Today() string {
	return t.Day(t.now())
}

func (t *Tracker) key(userID string) (models.UsageKey, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.UsageKey{}, models.ErrUnauthenticated
	}
	return models.UsageKey{UserID: userID, Day: t.Today()}, nil
}

// CheckAndConsume consumes one request slot for today. When the ceiling is reached the
// counter is left unchanged and the decision is not allowed.
func (t *Tracker) CheckAndConsume(ctx context.Context, userID string) (Decision, error) {
	key, err := t.key(userID)
	if err != nil {
		return Decision{}, err
	}
	count, allowed, err := t.store.IncrementIfBelow(ctx, key, t.limit)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to consume quota for %s: %w", key, err)
	}
	return Decision{Allowed: allowed, Count: count, Limit: t.limit}, nil
}

// Usage reports today's count for userID
func (t *Tracker) Usage(ctx context.Context, userID string) (models.Usage, error) {
	key, err := t.key(userID)
	if err != nil {
		return models.Usage{}, err
	}
	count, err := t.store.Count(ctx, key)
	if err != nil {
		return models.Usage{}, fmt.Errorf("failed to read usage for %s: %w", key, err)
	}
	return models.NewUsage(count, t.limit), nil
}

// Reset clears the counter for userID on day; an empty day means today
func (t *Tracker) Reset(ctx context.Context, userID, day string) error {
	key, err := t.key(userID)
	if err != nil {
		return err
	}
	if day != "" {
		if _, err := time.Parse(DayLayout, day); err != nil {
			return fmt.Errorf("invalid day %q: expected %s", day, DayLayout)
		}
		key.Day = day
	}
	if err := t.store.Reset(ctx, key); err != nil {
		return fmt.Errorf("failed to reset usage for %s: %w", key, err)
	}
	return nil
}

// Ping checks the underlying store
func (t *Tracker) Ping(ctx context.Context) error {
	return t.store.Ping(ctx)
}
