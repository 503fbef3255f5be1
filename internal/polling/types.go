package polling

import (
	"context"
	"time"

	"max-notify/internal/model"
)

// Config holds the loop tunables.
type Config struct {
	Timeout    int // long-poll timeout in seconds, sent to the server
	Limit      int
	RetryDelay time.Duration
	EmptyDelay time.Duration
	Types      []string
}

// ClientFactory builds an API client for one access token.
type ClientFactory func(token string) UpdatesClient

// Loop is one running long-polling loop.
type Loop struct {
	inst   model.Instance
	cancel context.CancelFunc
	done   chan struct{}
}

// Done is closed when the loop has exited.
func (lp *Loop) Done() <-chan struct{} {
	return lp.done
}
