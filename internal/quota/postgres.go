package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/levelup-ai/internal/models"
)

// PostgresStore keeps counters in the usage_counters table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle; the schema is created by database.Migrate
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// IncrementIfBelow implements Store. The conditional upsert only updates rows still below
// the limit; no returned row means the ceiling was reached.
func (s *PostgresStore) IncrementIfBelow(ctx context.Context, key models.UsageKey, limit int) (int, bool, error) {
	if limit <= 0 {
		count, err := s.Count(ctx, key)
		return count, false, err
	}

	query := `
		INSERT INTO usage_counters (user_id, day, count, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (user_id, day) DO UPDATE
		SET count = usage_counters.count + 1, updated_at = NOW()
		WHERE usage_counters.count < $3
		RETURNING count
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, key.UserID, key.Day, limit).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		current, cerr := s.Count(ctx, key)
		if cerr != nil {
			return 0, false, cerr
		}
		return current, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to increment usage counter: %w", err)
	}
	return count, true, nil
}

// Count implements Store
func (s *PostgresStore) Count(ctx context.Context, key models.UsageKey) (int, error) {
	query := `SELECT count FROM usage_counters WHERE user_id = $1 AND day = $2`

	var count int
	err := s.db.QueryRowContext(ctx, query, key.UserID, key.Day).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read usage counter: %w", err)
	}
	return count, nil
}

// Reset implements Store
func (s *PostgresStore) Reset(ctx context.Context, key models.UsageKey) error {
	query := `DELETE FROM usage_counters WHERE user_id = $1 AND day = $2`
	if _, err := s.db.ExecContext(ctx, query, key.UserID, key.Day); err != nil {
		return fmt.Errorf("failed to reset usage counter: %w", err)
	}
	return nil
}

// Ping implements Store
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
