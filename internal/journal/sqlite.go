package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	pkgLog "max-notify/pkg/log"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

type sqliteRepository struct {
	db *sql.DB
	l  pkgLog.Logger
}

// NewSQLite opens the database file, creating its directory when needed, and applies the schema.
func NewSQLite(ctx context.Context, dsn string, l pkgLog.Logger) (Repository, error) {
	if path := sqlitePath(dsn); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("journal sqlite: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal sqlite: %w", err)
	}
	// One writer avoids SQLITE_BUSY under concurrent workers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal sqlite ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal sqlite schema: %w", err)
	}

	return &sqliteRepository{db: db, l: l}, nil
}

// sqlitePath returns the file path of dsn, or "" for in-memory databases.
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	return path
}

func (r *sqliteRepository) Append(ctx context.Context, rec Record) error {
	const query = `
		INSERT INTO max_notify_events (id, config_entry_id, event_type, event_id, update_type, payload, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.ConfigEntryID, rec.EventType, rec.EventID, rec.UpdateType, string(rec.Payload), rec.ReceivedAt.UTC())
	if err != nil {
		r.l.Errorf(ctx, "journal/sqlite.Append: %v", err)
		return fmt.Errorf("%w: %v", ErrFailedToInsert, err)
	}
	return nil
}

func (r *sqliteRepository) Recent(ctx context.Context, opt RecentOptions) ([]Record, error) {
	const query = `
		SELECT id, config_entry_id, event_type, event_id, update_type, payload, received_at
		FROM max_notify_events
		WHERE (? = '' OR config_entry_id = ?)
		ORDER BY received_at DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, opt.ConfigEntryID, opt.ConfigEntryID, clampLimit(opt.Limit))
	if err != nil {
		r.l.Errorf(ctx, "journal/sqlite.Recent: %v", err)
		return nil, ErrFailedToList
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec     Record
			payload string
		)
		if err := rows.Scan(&rec.ID, &rec.ConfigEntryID, &rec.EventType, &rec.EventID, &rec.UpdateType, &payload, &rec.ReceivedAt); err != nil {
			r.l.Errorf(ctx, "journal/sqlite.Recent scan: %v", err)
			return nil, ErrFailedToList
		}
		rec.Payload = []byte(payload)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		r.l.Errorf(ctx, "journal/sqlite.Recent rows: %v", err)
		return nil, ErrFailedToList
	}
	return records, nil
}

func (r *sqliteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *sqliteRepository) Close() error {
	return r.db.Close()
}
