package queue

import "context"

// NoopPublisher discards events; used when no broker is configured
type NoopPublisher struct{}

// Publish implements Publisher
func (NoopPublisher) Publish(context.Context, *Event) error { return nil }

// Close implements Publisher
func (NoopPublisher) Close() error { return nil }

// HealthCheck implements Publisher
func (NoopPublisher) HealthCheck(context.Context) error { return nil }
