package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/levelup-ai/internal/queue"
)

// mockMessage is a mock implementation of queue.MessageInterface
type mockMessage struct {
	event   *queue.Event
	acked   bool
	nacked  bool
	requeue bool
}

func (m *mockMessage) Ack() error {
	m.acked = true
	return nil
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeue = requeue
	return nil
}

func (m *mockMessage) GetEvent() *queue.Event {
	return m.event
}

var _ queue.MessageInterface = (*mockMessage)(nil)

// mockEventStore is a mock implementation of EventStore
type mockEventStore struct {
	insertFunc func(ctx context.Context, event *queue.Event) error
	inserted   []*queue.Event
}

func (m *mockEventStore) Insert(ctx context.Context, event *queue.Event) error {
	if m.insertFunc != nil {
		if err := m.insertFunc(ctx, event); err != nil {
			return err
		}
	}
	m.inserted = append(m.inserted, event)
	return nil
}

// mockRepublisher is a mock implementation of Republisher
type mockRepublisher struct {
	err         error
	republished []*queue.Event
}

func (m *mockRepublisher) Republish(ctx context.Context, event *queue.Event) error {
	if m.err != nil {
		return m.err
	}
	m.republished = append(m.republished, event)
	return nil
}

func TestUsageRecorder_ProcessMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		event           *queue.Event
		retryCount      int
		insertErr       error
		republishErr    error
		expectError     bool
		expectAck       bool
		expectNack      bool
		expectInserted  int
		expectRepublish int
	}{
		{
			name:           "stores and acks",
			event:          queue.NewEvent("u1", "summarize", "text", "2026-03-14", 1),
			expectAck:      true,
			expectInserted: 1,
		},
		{
			name:        "unknown type is dead-lettered",
			event:       &queue.Event{Type: "bogus"},
			expectError: true,
			expectNack:  true,
		},
		{
			name:            "store failure republishes",
			event:           queue.NewEvent("u1", "recipe", "image", "2026-03-14", 2),
			insertErr:       errors.New("db down"),
			expectError:     true,
			expectAck:       true,
			expectRepublish: 1,
		},
		{
			name:        "store failure after retries exhausted",
			event:       queue.NewEvent("u1", "rewrite", "audio", "2026-03-14", 3),
			retryCount:  3,
			insertErr:   errors.New("db down"),
			expectError: true,
			expectNack:  true,
		},
		{
			name:         "republish failure dead-letters",
			event:        queue.NewEvent("u1", "rewrite", "audio", "2026-03-14", 3),
			insertErr:    errors.New("db down"),
			republishErr: errors.New("broker down"),
			expectError:  true,
			expectNack:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tt.event.RetryCount = tt.retryCount
			store := &mockEventStore{insertFunc: func(context.Context, *queue.Event) error { return tt.insertErr }}
			republisher := &mockRepublisher{err: tt.republishErr}
			recorder := NewUsageRecorder(store, republisher, nil, true)
			msg := &mockMessage{event: tt.event}

			err := recorder.ProcessMessage(context.Background(), msg)
			if tt.expectError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if msg.acked != tt.expectAck {
				t.Errorf("Expected acked=%v, got %v", tt.expectAck, msg.acked)
			}
			if msg.nacked != tt.expectNack {
				t.Errorf("Expected nacked=%v, got %v", tt.expectNack, msg.nacked)
			}
			if msg.nacked && msg.requeue {
				t.Error("Expected nack without requeue")
			}
			if len(store.inserted) != tt.expectInserted {
				t.Errorf("Expected %d inserted events, got %d", tt.expectInserted, len(store.inserted))
			}
			if len(republisher.republished) != tt.expectRepublish {
				t.Errorf("Expected %d republished events, got %d", tt.expectRepublish, len(republisher.republished))
			}
		})
	}
}

func TestUsageRecorder_Run_StopsWhenChannelCloses(t *testing.T) {
	t.Parallel()

	store := &mockEventStore{}
	recorder := NewUsageRecorder(store, nil, nil, false)

	msgs := make(chan queue.MessageInterface, 2)
	errs := make(chan error, 1)
	msgs <- &mockMessage{event: queue.NewEvent("u1", "summarize", "text", "2026-03-14", 1)}
	msgs <- &mockMessage{event: queue.NewEvent("u2", "summarize", "text", "2026-03-14", 1)}
	errs <- errors.New("transient")
	close(msgs)

	done := make(chan struct{})
	go func() {
		recorder.Run(context.Background(), msgs, errs)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the message channel closed")
	}
	if len(store.inserted) != 2 {
		t.Errorf("Expected 2 inserted events, got %d", len(store.inserted))
	}
}
