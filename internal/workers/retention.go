package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// EventPurger deletes usage events recorded before a given day
type EventPurger interface {
	PurgeBefore(ctx context.Context, day string) (int64, error)
}

// RetentionSweeper periodically drops usage history older than a fixed number of days
type RetentionSweeper struct {
	purger   EventPurger
	keepDays int
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewRetentionSweeper creates a sweeper keeping keepDays days of history
func NewRetentionSweeper(purger EventPurger, keepDays int, interval time.Duration, logger *zap.Logger) *RetentionSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &RetentionSweeper{
		purger:   purger,
		keepDays: keepDays,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// cutoffDay returns the first day that is kept
func (s *RetentionSweeper) cutoffDay() string {
	return s.now().AddDate(0, 0, -s.keepDays).Format("2006-01-02")
}

// Sweep runs one purge pass
func (s *RetentionSweeper) Sweep(ctx context.Context) error {
	if s.keepDays <= 0 {
		return nil
	}
	cutoff := s.cutoffDay()
	n, err := s.purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge usage history before %s: %w", cutoff, err)
	}
	s.logger.Info("usage_history_purged",
		zap.String("before_day", cutoff),
		zap.Int64("removed", n),
	)
	return nil
}

// Start sweeps immediately and then every interval until ctx is cancelled
func (s *RetentionSweeper) Start(ctx context.Context) {
	if err := s.Sweep(ctx); err != nil {
		s.logger.Warn("usage_history_purge_failed", zap.Error(err))
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Warn("usage_history_purge_failed", zap.Error(err))
			}
		}
	}
}
