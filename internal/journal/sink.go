package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"max-notify/internal/model"
	pkgLog "max-notify/pkg/log"
)

// Sink appends every fired event to the journal.
type Sink struct {
	repo Repository
	now  func() time.Time
	l    pkgLog.Logger
}

func NewSink(repo Repository, l pkgLog.Logger) *Sink {
	return &Sink{repo: repo, now: time.Now, l: l}
}

func (s *Sink) Fire(ctx context.Context, eventType string, data model.Event) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return s.repo.Append(ctx, Record{
		ID:            uuid.NewString(),
		ConfigEntryID: data.ConfigEntryID,
		EventType:     eventType,
		EventID:       data.EventID,
		UpdateType:    data.UpdateType,
		Payload:       payload,
		ReceivedAt:    s.now().UTC(),
	})
}
