package ingest

import (
	"time"

	"max-notify/internal/eventbus"
	pkgLog "max-notify/pkg/log"
)

const (
	DefaultCallbackWindow = 3 * time.Second
	DefaultDefaultWindow  = 15 * time.Second
	DefaultWorkers        = 4
	DefaultJobTimeout     = 30 * time.Second
)

func New(bus eventbus.Bus, cfg Config, l pkgLog.Logger) UseCase {
	if cfg.CallbackWindow <= 0 {
		cfg.CallbackWindow = DefaultCallbackWindow
	}
	if cfg.DefaultWindow <= 0 {
		cfg.DefaultWindow = DefaultDefaultWindow
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultJobTimeout
	}

	return &usecase{
		dedup:      NewDedupStore(cfg.CallbackWindow, cfg.DefaultWindow),
		dispatcher: NewDispatcher(bus, l),
		pool:       newWorkerPool(cfg.Workers, cfg.JobTimeout, l),
		now:        time.Now,
		l:          l,
	}
}
