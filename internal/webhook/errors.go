package webhook

import "errors"

var (
	ErrInvalidSecret = errors.New("webhook secret mismatch")
	ErrIPNotAllowed  = errors.New("ip not whitelisted")
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrInvalidJSON   = errors.New("invalid json")
	ErrNotObject     = errors.New("body must be object")
	ErrNoPublicURL   = errors.New("public url not available")
)
