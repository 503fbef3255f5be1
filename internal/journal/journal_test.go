package journal_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"max-notify/internal/journal"
	"max-notify/internal/model"
)

// ── Mocks ──────────────────────────────────────────────────────────────────

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, args ...interface{})                  {}
func (m *mockLogger) Debugf(ctx context.Context, format string, args ...interface{})  {}
func (m *mockLogger) Info(ctx context.Context, args ...interface{})                   {}
func (m *mockLogger) Infof(ctx context.Context, format string, args ...interface{})   {}
func (m *mockLogger) Warn(ctx context.Context, args ...interface{})                   {}
func (m *mockLogger) Warnf(ctx context.Context, format string, args ...interface{})   {}
func (m *mockLogger) Error(ctx context.Context, args ...interface{})                  {}
func (m *mockLogger) Errorf(ctx context.Context, format string, args ...interface{})  {}
func (m *mockLogger) DPanic(ctx context.Context, args ...interface{})                 {}
func (m *mockLogger) DPanicf(ctx context.Context, format string, args ...interface{}) {}
func (m *mockLogger) Panic(ctx context.Context, args ...interface{})                  {}
func (m *mockLogger) Panicf(ctx context.Context, format string, args ...interface{})  {}
func (m *mockLogger) Fatal(ctx context.Context, args ...interface{})                  {}
func (m *mockLogger) Fatalf(ctx context.Context, format string, args ...interface{})  {}

type captureRepo struct {
	records []journal.Record
}

func (c *captureRepo) Append(ctx context.Context, rec journal.Record) error {
	c.records = append(c.records, rec)
	return nil
}
func (c *captureRepo) Recent(ctx context.Context, opt journal.RecentOptions) ([]journal.Record, error) {
	return c.records, nil
}
func (c *captureRepo) Ping(ctx context.Context) error { return nil }
func (c *captureRepo) Close() error                   { return nil }

// ── Tests ──────────────────────────────────────────────────────────────────

func TestOpen(t *testing.T) {
	ctx := context.Background()

	if _, err := journal.Open(ctx, "mysql", "x", &mockLogger{}); !errors.Is(err, journal.ErrUnknownDriver) {
		t.Errorf("unknown driver err = %v", err)
	}
	if _, err := journal.Open(ctx, journal.DriverSQLite, "", &mockLogger{}); !errors.Is(err, journal.ErrDSNRequired) {
		t.Errorf("empty dsn err = %v", err)
	}
}

func TestSQLiteRepository(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "nested", "journal.db")

	repo, err := journal.Open(ctx, journal.DriverSQLite, dsn, &mockLogger{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer repo.Close()

	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, entry := range []string{"a", "b", "a"} {
		rec := journal.Record{
			ID:            "id-" + string(rune('0'+i)),
			ConfigEntryID: entry,
			EventType:     model.EventReceived,
			EventID:       "ev-" + string(rune('0'+i)),
			UpdateType:    model.UpdateMessageCreated,
			Payload:       json.RawMessage(`{"config_entry_id":"` + entry + `"}`),
			ReceivedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Append(ctx, rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	// Same id again is ignored.
	if err := repo.Append(ctx, journal.Record{ID: "id-0", ConfigEntryID: "a", Payload: json.RawMessage(`{}`), ReceivedAt: base}); err != nil {
		t.Fatalf("duplicate Append() error = %v", err)
	}

	all, err := repo.Recent(ctx, journal.RecentOptions{})
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Recent() returned %d records, want 3", len(all))
	}
	if all[0].ID != "id-2" {
		t.Errorf("newest first: got %s", all[0].ID)
	}
	if !all[0].ReceivedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("received_at = %v", all[0].ReceivedAt)
	}

	onlyA, err := repo.Recent(ctx, journal.RecentOptions{ConfigEntryID: "a", Limit: 1})
	if err != nil {
		t.Fatalf("Recent(a) error = %v", err)
	}
	if len(onlyA) != 1 || onlyA[0].ConfigEntryID != "a" || string(onlyA[0].Payload) != `{"config_entry_id":"a"}` {
		t.Errorf("Recent(a) = %+v", onlyA)
	}
}

func TestSink(t *testing.T) {
	repo := &captureRepo{}
	sink := journal.NewSink(repo, &mockLogger{})
	text := "hi"

	err := sink.Fire(context.Background(), model.EventReceived, model.Event{
		ConfigEntryID: "e1",
		UpdateType:    model.UpdateMessageCreated,
		Text:          &text,
		EventID:       "k1",
	})
	if err != nil {
		t.Fatalf("Fire() error = %v", err)
	}

	rec := repo.records[0]
	if rec.ID == "" || rec.EventID != "k1" || rec.ConfigEntryID != "e1" || rec.EventType != model.EventReceived {
		t.Errorf("unexpected record %+v", rec)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Payload, &payload); err != nil || payload["text"] != "hi" {
		t.Errorf("payload = %s (%v)", rec.Payload, err)
	}
}
