package ingest

import (
	"time"

	"max-notify/internal/model"
)

// Config holds the pipeline tunables.
type Config struct {
	CallbackWindow time.Duration // dedup window for message_callback
	DefaultWindow  time.Duration // dedup window for everything else
	Workers        int
	JobTimeout     time.Duration
}

// Status tells what happened to a processed update.
type Status string

const (
	StatusFired     Status = "fired"
	StatusDuplicate Status = "duplicate"
	StatusFiltered  Status = "filtered"
)

// ProcessOutput is the result of Process.
type ProcessOutput struct {
	Status Status
	Key    string
	Event  model.Event
}
