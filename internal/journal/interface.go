package journal

import "context"

// Repository persists fired events for inspection and replay.
type Repository interface {
	Append(ctx context.Context, rec Record) error
	Recent(ctx context.Context, opt RecentOptions) ([]Record, error)
	Ping(ctx context.Context) error
	Close() error
}
