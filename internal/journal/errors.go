package journal

import "errors"

var (
	ErrUnknownDriver  = errors.New("unknown journal driver")
	ErrDSNRequired    = errors.New("journal dsn is required")
	ErrFailedToInsert = errors.New("failed to insert journal record")
	ErrFailedToList   = errors.New("failed to list journal records")
)
