package eventbus

import (
	"context"
	"time"

	"max-notify/internal/model"
)

// Bus publishes normalized events to automation consumers.
type Bus interface {
	Fire(ctx context.Context, eventType string, data model.Event) error
}

// Message is one fired event as seen by subscribers and sinks.
type Message struct {
	EventType string      `json:"event_type"`
	Data      model.Event `json:"data"`
	FiredAt   time.Time   `json:"fired_at"`
}

// Filter selects which messages a subscriber receives. A nil Filter accepts all.
type Filter func(Message) bool

// ForEntry accepts only messages of one config entry. Empty id accepts all.
func ForEntry(entryID string) Filter {
	if entryID == "" {
		return nil
	}
	return func(m Message) bool {
		return m.Data.ConfigEntryID == entryID
	}
}
