package queue

import (
	"context"
	"time"
)

// MessageInterface defines the interface for queue messages
// This enables better testability by allowing mock implementations
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetEvent() *Event
}

// Publisher publishes usage events
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
	HealthCheck(ctx context.Context) error
}

// EventQueue is a Publisher that can also be consumed
type EventQueue interface {
	Publisher

	// Consume returns a channel of messages from the queue.
	// The caller is responsible for acknowledging each message.
	// Prefetch controls how many unacknowledged messages the consumer can hold.
	// The returned channels are closed when ctx is cancelled or the delivery channel fails.
	Consume(ctx context.Context, prefetchCount int) (<-chan MessageInterface, <-chan error, error)

	// Republish puts an event back on the main queue, used for bounded retries
	Republish(ctx context.Context, event *Event) error
}

// DLQPurger removes dead-lettered messages older than a retention period
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
