package workers

import (
	"context"
	"fmt"

	"github.com/benvon/levelup-ai/internal/queue"
	"go.uber.org/zap"
)

// EventStore persists usage events
type EventStore interface {
	Insert(ctx context.Context, event *queue.Event) error
}

// Republisher puts an event back on the queue for another attempt
type Republisher interface {
	Republish(ctx context.Context, event *queue.Event) error
}

// UsageRecorder stores usage events consumed from the queue
type UsageRecorder struct {
	store       EventStore
	republisher Republisher
	logger      *zap.Logger
	debugMode   bool
}

// NewUsageRecorder creates a new usage recorder. republisher may be nil to disable retries.
func NewUsageRecorder(store EventStore, republisher Republisher, logger *zap.Logger, debugMode bool) *UsageRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsageRecorder{
		store:       store,
		republisher: republisher,
		logger:      logger,
		debugMode:   debugMode,
	}
}

// ProcessMessage stores one event and settles its delivery
func (r *UsageRecorder) ProcessMessage(ctx context.Context, msg queue.MessageInterface) error {
	event := msg.GetEvent()
	if event == nil || event.Type != queue.EventTypeGeneration {
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Warn("failed_to_nack_unknown_event", zap.Error(nackErr))
		}
		if event == nil {
			return fmt.Errorf("message carried no event")
		}
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err := r.store.Insert(ctx, event); err != nil {
		return r.handleStoreError(ctx, msg, event, err)
	}

	if r.debugMode {
		r.logger.Debug("usage_event_recorded",
			zap.String("event_id", event.ID.String()),
			zap.String("mode", event.Mode),
			zap.String("input_kind", event.InputKind),
			zap.String("day", event.Day),
			zap.Int("count", event.Count),
			zap.Bool("success", event.Success),
		)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack event: %w", ackErr)
	}
	return nil
}

// handleStoreError republishes the event while retries remain, otherwise dead-letters it
func (r *UsageRecorder) handleStoreError(ctx context.Context, msg queue.MessageInterface, event *queue.Event, err error) error {
	if r.republisher != nil && event.CanRetry() {
		event.IncrementRetry()
		pubErr := r.republisher.Republish(ctx, event)
		if pubErr == nil {
			r.logger.Warn("usage_event_retry_scheduled",
				zap.String("event_id", event.ID.String()),
				zap.Int("retry_count", event.RetryCount),
				zap.Error(err),
			)
			if ackErr := msg.Ack(); ackErr != nil {
				return fmt.Errorf("failed to ack republished event: %w", ackErr)
			}
			return fmt.Errorf("failed to store event (retry %d scheduled): %w", event.RetryCount, err)
		}
		r.logger.Error("usage_event_republish_failed",
			zap.String("event_id", event.ID.String()),
			zap.Error(pubErr),
		)
	}

	if nackErr := msg.Nack(false); nackErr != nil {
		r.logger.Warn("failed_to_nack_event", zap.Error(nackErr))
	}
	return fmt.Errorf("failed to store event, sent to DLQ: %w", err)
}

// Run consumes messages and errors until ctx is cancelled or the message channel closes
func (r *UsageRecorder) Run(ctx context.Context, msgs <-chan queue.MessageInterface, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			r.logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-msgs:
			if !ok {
				r.logger.Info("message_channel_closed")
				return
			}
			if err := r.ProcessMessage(ctx, msg); err != nil {
				fields := []zap.Field{zap.Error(err)}
				if ev := msg.GetEvent(); ev != nil {
					fields = append(fields, zap.String("event_id", ev.ID.String()))
				}
				r.logger.Error("failed_to_process_event", fields...)
			}
		}
	}
}
