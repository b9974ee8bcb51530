package quota

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/benvon/levelup-ai/internal/models"
)

var (
	upsertCounterSQL = regexp.QuoteMeta(`ON CONFLICT (user_id, day) DO UPDATE SET count = usage_counters.count + 1, updated_at = NOW() WHERE usage_counters.count < $3 RETURNING count`)
	selectCounterSQL = regexp.QuoteMeta(`SELECT count FROM usage_counters WHERE user_id = $1 AND day = $2`)
)

func newPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_IncrementIfBelow(t *testing.T) {
	t.Parallel()

	key := models.UsageKey{UserID: "user-1", Day: "2026-03-14"}

	tests := []struct {
		name        string
		limit       int
		setup       func(mock sqlmock.Sqlmock)
		wantCount   int
		wantAllowed bool
		wantErr     bool
	}{
		{
			name:  "below ceiling increments",
			limit: 50,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(upsertCounterSQL).
					WithArgs("user-1", "2026-03-14", 50).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
			},
			wantCount:   12,
			wantAllowed: true,
		},
		{
			name:  "at ceiling the guarded update returns no row",
			limit: 50,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(upsertCounterSQL).
					WithArgs("user-1", "2026-03-14", 50).
					WillReturnRows(sqlmock.NewRows([]string{"count"}))
				mock.ExpectQuery(selectCounterSQL).
					WithArgs("user-1", "2026-03-14").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(50))
			},
			wantCount: 50,
		},
		{
			name:  "zero limit only reads",
			limit: 0,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectCounterSQL).
					WithArgs("user-1", "2026-03-14").
					WillReturnRows(sqlmock.NewRows([]string{"count"}))
			},
		},
		{
			name:  "database failure",
			limit: 50,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(upsertCounterSQL).
					WithArgs("user-1", "2026-03-14", 50).
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store, mock := newPostgresStore(t)
			tt.setup(mock)

			count, allowed, err := store.IncrementIfBelow(context.Background(), key, tt.limit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if count != tt.wantCount {
				t.Errorf("Expected count %d, got %d", tt.wantCount, count)
			}
			if allowed != tt.wantAllowed {
				t.Errorf("Expected allowed %v, got %v", tt.wantAllowed, allowed)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("Unmet expectations: %v", err)
			}
		})
	}
}

func TestPostgresStore_Reset(t *testing.T) {
	t.Parallel()

	store, mock := newPostgresStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM usage_counters WHERE user_id = $1 AND day = $2`)).
		WithArgs("user-1", "2026-03-13").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Reset(context.Background(), models.UsageKey{UserID: "user-1", Day: "2026-03-13"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
