package workers

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingPurger struct {
	days    []string
	removed int64
	err     error
}

func (p *recordingPurger) PurgeBefore(_ context.Context, day string) (int64, error) {
	p.days = append(p.days, day)
	return p.removed, p.err
}

func TestRetentionSweeper_Sweep(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 3, 15, 10, 0, 0, 0, time.Local)

	tests := []struct {
		name     string
		keepDays int
		err      error
		wantDay  string
		wantErr  bool
	}{
		{name: "ninety days", keepDays: 90, wantDay: "2025-12-15"},
		{name: "one day", keepDays: 1, wantDay: "2026-03-14"},
		{name: "disabled", keepDays: 0},
		{name: "store failure", keepDays: 7, err: errors.New("connection refused"), wantDay: "2026-03-08", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			purger := &recordingPurger{removed: 3, err: tt.err}
			s := NewRetentionSweeper(purger, tt.keepDays, time.Hour, nil)
			s.now = func() time.Time { return fixed }

			err := s.Sweep(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantDay == "" {
				if len(purger.days) != 0 {
					t.Errorf("Expected no purge, got %v", purger.days)
				}
				return
			}
			if len(purger.days) != 1 || purger.days[0] != tt.wantDay {
				t.Errorf("Expected purge before %s, got %v", tt.wantDay, purger.days)
			}
		})
	}
}

func TestRetentionSweeper_StartSweepsImmediately(t *testing.T) {
	t.Parallel()

	purger := &recordingPurger{}
	s := NewRetentionSweeper(purger, 30, 0, nil)
	if s.interval != 6*time.Hour {
		t.Errorf("Expected default interval of 6h, got %v", s.interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)

	if len(purger.days) != 1 {
		t.Errorf("Expected one sweep before returning, got %d", len(purger.days))
	}
}
