package database

import (
	"context"
	"fmt"

	"github.com/benvon/levelup-ai/internal/queue"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// DailyTotal aggregates one day of usage events
type DailyTotal struct {
	Day        string
	Requests   int
	Failures   int
	Users      int
	AvgLatency int64
}

// UsageEventRepository stores usage events consumed from the queue
type UsageEventRepository struct {
	db *DB
}

// NewUsageEventRepository creates a new usage event repository
func NewUsageEventRepository(db *DB) *UsageEventRepository {
	return &UsageEventRepository{db: db}
}

// Insert stores an event. Redelivered events with a known id are ignored.
func (r *UsageEventRepository) Insert(ctx context.Context, event *queue.Event) error {
	query := `
		INSERT INTO usage_events (id, user_id, mode, input_kind, day, count, success, latency_ms, error, provider, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), $12)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.UserID,
		event.Mode,
		event.InputKind,
		event.Day,
		event.Count,
		event.Success,
		event.LatencyMS,
		event.Error,
		event.Provider,
		event.RequestID,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage event: %w", err)
	}
	return nil
}

// ListByUser returns the most recent events for userID, newest first
func (r *UsageEventRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*queue.Event, error) {
	query := `
		SELECT id, user_id, mode, input_kind, to_char(day, 'YYYY-MM-DD'), count, success, latency_ms,
			COALESCE(error, ''), COALESCE(provider, ''), COALESCE(request_id, ''), created_at
		FROM usage_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list usage events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*queue.Event
	for rows.Next() {
		e := &queue.Event{Type: queue.EventTypeGeneration}
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Mode,
			&e.InputKind,
			&e.Day,
			&e.Count,
			&e.Success,
			&e.LatencyMS,
			&e.Error,
			&e.Provider,
			&e.RequestID,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage events: %w", err)
	}
	return events, nil
}

// DailyTotals aggregates events per day, most recent first
func (r *UsageEventRepository) DailyTotals(ctx context.Context, days int) ([]DailyTotal, error) {
	query := `
		SELECT to_char(day, 'YYYY-MM-DD'),
			COUNT(*),
			COUNT(*) FILTER (WHERE NOT success),
			COUNT(DISTINCT user_id),
			COALESCE(AVG(latency_ms), 0)::BIGINT
		FROM usage_events
		GROUP BY day
		ORDER BY day DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, clampLimit(days))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var totals []DailyTotal
	for rows.Next() {
		var t DailyTotal
		if err := rows.Scan(&t.Day, &t.Requests, &t.Failures, &t.Users, &t.AvgLatency); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// PurgeBefore deletes events older than day (YYYY-MM-DD) and returns the number removed
func (r *UsageEventRepository) PurgeBefore(ctx context.Context, day string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM usage_events WHERE day < $1`, day)
	if err != nil {
		return 0, fmt.Errorf("failed to purge usage events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged usage events: %w", err)
	}
	return n, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}
