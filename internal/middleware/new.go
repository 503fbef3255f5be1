package middleware

import (
	"max-notify/pkg/log"
)

type Middleware struct {
	l        log.Logger
	apiToken string
}

// New builds the middleware set. apiToken guards the event consumer routes;
// when empty those routes reject every request.
func New(l log.Logger, apiToken string) Middleware {
	return Middleware{
		l:        l,
		apiToken: apiToken,
	}
}
