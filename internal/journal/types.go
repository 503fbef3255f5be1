package journal

import (
	"encoding/json"
	"time"
)

// Record is one fired event as stored in the journal.
type Record struct {
	ID            string
	ConfigEntryID string
	EventType     string
	EventID       string
	UpdateType    string
	Payload       json.RawMessage
	ReceivedAt    time.Time
}

// RecentOptions filters Recent. An empty ConfigEntryID matches every entry.
type RecentOptions struct {
	ConfigEntryID string
	Limit         int
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultRecentLimit = 50
	MaxRecentLimit     = 500
)
