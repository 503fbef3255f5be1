package polling

import (
	"context"
	"sync"
	"time"

	"max-notify/internal/model"
	pkgLog "max-notify/pkg/log"
)

const (
	DefaultTimeout    = 25
	DefaultLimit      = 100
	DefaultRetryDelay = 5 * time.Second
	DefaultEmptyDelay = 500 * time.Millisecond
)

type manager struct {
	cfg       Config
	newClient ClientFactory
	submitter Submitter
	l         pkgLog.Logger

	baseCtx context.Context
	mu      sync.Mutex
	loops   map[string]*Loop
	markers map[string]string
}

func New(newClient ClientFactory, submitter Submitter, cfg Config, l pkgLog.Logger) Manager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.EmptyDelay <= 0 {
		cfg.EmptyDelay = DefaultEmptyDelay
	}
	if len(cfg.Types) == 0 {
		cfg.Types = model.ReceivableUpdateTypes
	}

	return &manager{
		cfg:       cfg,
		newClient: newClient,
		submitter: submitter,
		l:         l,
		baseCtx:   context.Background(),
		loops:     make(map[string]*Loop),
		markers:   make(map[string]string),
	}
}
