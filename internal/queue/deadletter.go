package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// deadLetterPassTimeout bounds one purge pass against the broker
const deadLetterPassTimeout = 2 * time.Minute

// DeadLetterSweeper drops usage events that sat in the dead-letter queue longer than maxAge.
// Events land there when the worker could not store them; after maxAge they are no longer
// worth replaying because the usage day they describe has been reported.
type DeadLetterSweeper struct {
	purger DLQPurger
	every  time.Duration
	maxAge time.Duration
	logger *zap.Logger
}

// NewDeadLetterSweeper creates a sweeper. A nil purger turns every pass into a no-op.
func NewDeadLetterSweeper(purger DLQPurger, every, maxAge time.Duration, logger *zap.Logger) *DeadLetterSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if every <= 0 {
		every = time.Hour
	}
	return &DeadLetterSweeper{purger: purger, every: every, maxAge: maxAge, logger: logger}
}

// Sweep runs a single pass and reports how many events were dropped
func (s *DeadLetterSweeper) Sweep(ctx context.Context) (int, error) {
	if s.purger == nil || s.maxAge <= 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, deadLetterPassTimeout)
	defer cancel()

	n, err := s.purger.PurgeOlderThan(ctx, s.maxAge)
	if err != nil {
		return 0, fmt.Errorf("dead-letter purge: %w", err)
	}
	if n > 0 {
		s.logger.Info("dead_letter_events_dropped",
			zap.Int("count", n),
			zap.Duration("max_age", s.maxAge),
		)
	}
	return n, nil
}

// Run sweeps on every tick until ctx is done, returning ctx.Err()
func (s *DeadLetterSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Warn("dead_letter_sweep_failed", zap.Error(err))
			}
		}
	}
}
