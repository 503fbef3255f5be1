package journal

import (
	"context"
	"fmt"

	pkgLog "max-notify/pkg/log"
)

// Open connects the journal backend named by driver and applies its schema.
func Open(ctx context.Context, driver, dsn string, l pkgLog.Logger) (Repository, error) {
	if dsn == "" {
		return nil, ErrDSNRequired
	}
	switch driver {
	case DriverPostgres:
		return NewPostgres(ctx, dsn, l)
	case DriverSQLite:
		return NewSQLite(ctx, dsn, l)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	return min(limit, MaxRecentLimit)
}
