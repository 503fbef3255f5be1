package ingest

import "errors"

var (
	ErrMalformedUpdate = errors.New("malformed update")
	ErrClosed          = errors.New("ingest pipeline closed")
)
