package preferences

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/levelup-ai/internal/models"
)

// PostgresStore keeps preferences in the user_preferences table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get implements Store
func (s *PostgresStore) Get(ctx context.Context, userID string) (*models.Preferences, error) {
	query := `
		SELECT COALESCE(name, ''), COALESCE(email, ''), COALESCE(default_language, ''), updated_at
		FROM user_preferences
		WHERE user_id = $1
	`

	p := &models.Preferences{}
	var updatedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&p.Name, &p.Email, &p.DefaultLanguage, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	if updatedAt.Valid {
		p.UpdatedAt = &updatedAt.Time
	}
	return p, nil
}

// Merge implements Store with a single upsert; empty parameters keep the stored value
func (s *PostgresStore) Merge(ctx context.Context, userID string, update models.PreferencesUpdate) (*models.Preferences, error) {
	query := `
		INSERT INTO user_preferences (user_id, name, email, default_language, updated_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			name = COALESCE(NULLIF($2, ''), user_preferences.name),
			email = COALESCE(NULLIF($3, ''), user_preferences.email),
			default_language = COALESCE(NULLIF($4, ''), user_preferences.default_language),
			updated_at = NOW()
		RETURNING COALESCE(name, ''), COALESCE(email, ''), COALESCE(default_language, ''), updated_at
	`

	p := &models.Preferences{}
	var updatedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, userID, update.Name, update.Email, update.DefaultLanguage).
		Scan(&p.Name, &p.Email, &p.DefaultLanguage, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to merge preferences: %w", err)
	}
	if updatedAt.Valid {
		p.UpdatedAt = &updatedAt.Time
	}
	return p, nil
}

// Ping implements Store
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
