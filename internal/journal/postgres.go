package journal

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	pkgLog "max-notify/pkg/log"
)

//go:embed schema_postgres.sql
var postgresSchema string

type postgresRepository struct {
	pool *pgxpool.Pool
	l    pkgLog.Logger
}

// NewPostgres creates a pool, fails fast if the database is unreachable and applies the schema.
func NewPostgres(ctx context.Context, dsn string, l pkgLog.Logger) (Repository, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("journal postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("journal postgres ping: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("journal postgres schema: %w", err)
	}

	return &postgresRepository{pool: pool, l: l}, nil
}

func (r *postgresRepository) Append(ctx context.Context, rec Record) error {
	const query = `
		INSERT INTO max_notify_events (id, config_entry_id, event_type, event_id, update_type, payload, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		rec.ID, rec.ConfigEntryID, rec.EventType, rec.EventID, rec.UpdateType, []byte(rec.Payload), rec.ReceivedAt)
	if err != nil {
		r.l.Errorf(ctx, "journal/postgres.Append: %v", err)
		return fmt.Errorf("%w: %v", ErrFailedToInsert, err)
	}
	return nil
}

func (r *postgresRepository) Recent(ctx context.Context, opt RecentOptions) ([]Record, error) {
	const query = `
		SELECT id::text, config_entry_id, event_type, event_id, update_type, payload, received_at
		FROM max_notify_events
		WHERE ($1 = '' OR config_entry_id = $1)
		ORDER BY received_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, opt.ConfigEntryID, clampLimit(opt.Limit))
	if err != nil {
		r.l.Errorf(ctx, "journal/postgres.Recent: %v", err)
		return nil, ErrFailedToList
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec     Record
			payload []byte
		)
		if err := rows.Scan(&rec.ID, &rec.ConfigEntryID, &rec.EventType, &rec.EventID, &rec.UpdateType, &payload, &rec.ReceivedAt); err != nil {
			r.l.Errorf(ctx, "journal/postgres.Recent scan: %v", err)
			return nil, ErrFailedToList
		}
		rec.Payload = payload
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		r.l.Errorf(ctx, "journal/postgres.Recent rows: %v", err)
		return nil, ErrFailedToList
	}
	return records, nil
}

func (r *postgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *postgresRepository) Close() error {
	r.pool.Close()
	return nil
}
