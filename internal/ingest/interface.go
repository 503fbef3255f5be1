package ingest

import (
	"context"

	"max-notify/internal/model"
)

type UseCase interface {
	// Process runs one raw update through dedup, normalization and dispatch.
	Process(ctx context.Context, inst model.Instance, upd model.Update) (ProcessOutput, error)

	// Submit queues an update for Process on the worker pool and returns at once.
	Submit(inst model.Instance, upd model.Update)

	// Close stops accepting updates and waits for queued ones to finish.
	Close(ctx context.Context) error
}
