package queue

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeGeneration records one quota-consuming generation request
	EventTypeGeneration EventType = "generation"
)

// Event is a usage record published after every request that consumed quota
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id"`
	Mode       string    `json:"mode"`
	InputKind  string    `json:"input_kind"`
	Day        string    `json:"day"`
	Count      int       `json:"count"` // counter value after this request
	Success    bool      `json:"success"`
	LatencyMS  int64     `json:"latency_ms"`
	Error      string    `json:"error,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	RetryCount int       `json:"retry_count"`
	MaxRetries int       `json:"max_retries"`
}

// NewEvent creates a generation event
func NewEvent(userID, mode, inputKind, day string, count int) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       EventTypeGeneration,
		UserID:     userID,
		Mode:       mode,
		InputKind:  inputKind,
		Day:        day,
		Count:      count,
		CreatedAt:  time.Now(),
		MaxRetries: 3,
	}
}

// CanRetry checks if the event can be redelivered after a failed store
func (e *Event) CanRetry() bool {
	return e.RetryCount < e.MaxRetries
}

// IncrementRetry increments the retry count
func (e *Event) IncrementRetry() {
	e.RetryCount++
}
