package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps the Postgres connection pool
type DB struct {
	*sql.DB
}

// New opens and pings a Postgres connection pool
func New(databaseURL string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlDB}, nil
}

// schema is applied in order by Migrate; every statement is idempotent
var schema = []string{
	`CREATE TABLE IF NOT EXISTS usage_counters (
		user_id TEXT NOT NULL,
		day DATE NOT NULL,
		count INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, day)
	)`,
	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id TEXT PRIMARY KEY,
		name TEXT,
		email TEXT,
		default_language TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS usage_events (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		mode TEXT NOT NULL,
		input_kind TEXT NOT NULL,
		day DATE NOT NULL,
		count INTEGER NOT NULL,
		success BOOLEAN NOT NULL,
		latency_ms BIGINT NOT NULL DEFAULT 0,
		error TEXT,
		provider TEXT,
		request_id TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_usage_events_user_created ON usage_events (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_usage_events_day ON usage_events (day)`,
}

// Migrate creates the tables used by the Postgres stores and the usage recorder
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	return nil
}
