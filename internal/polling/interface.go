package polling

import (
	"context"

	"max-notify/internal/model"
	"max-notify/pkg/maxbot"
)

type Manager interface {
	// Start launches the long-polling loop for inst, or returns the one already running.
	// It returns nil when the instance has no access token.
	Start(inst model.Instance) *Loop

	// Stop cancels the loop for id, forgets its marker and waits for it to exit or ctx to end.
	Stop(ctx context.Context, id string)

	// StopAll stops every running loop.
	StopAll(ctx context.Context)

	// Running reports whether a loop is registered for id.
	Running(id string) bool

	// Marker returns the stored cursor for id.
	Marker(id string) (string, bool)
}

// UpdatesClient is the part of the Max API the loop needs.
type UpdatesClient interface {
	GetUpdates(ctx context.Context, p maxbot.GetUpdatesParams) (*maxbot.UpdateList, error)
}

// Submitter takes updates for asynchronous processing.
type Submitter interface {
	Submit(inst model.Instance, upd model.Update)
}
