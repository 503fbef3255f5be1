package instance

import (
	"context"

	"max-notify/internal/model"
	"max-notify/internal/polling"
)

type Manager interface {
	// Setup activates the receive mode of inst.
	Setup(ctx context.Context, inst model.Instance)

	// Unload deactivates the receive mode of inst.
	Unload(ctx context.Context, inst model.Instance)

	// Apply reconciles the running set with instances: removed entries are
	// unloaded, changed ones reloaded and new ones set up.
	Apply(ctx context.Context, instances []model.Instance)

	// Schedule applies instances after the reload cooldown; later calls replace pending ones.
	Schedule(instances []model.Instance)

	// Shutdown unloads every instance. Schedule calls made afterwards are ignored.
	Shutdown(ctx context.Context)
}

// Poller runs long-polling loops.
type Poller interface {
	Start(inst model.Instance) *polling.Loop
	Stop(ctx context.Context, id string)
}

// Subscriber registers webhook subscriptions.
type Subscriber interface {
	Register(ctx context.Context, inst model.Instance) bool
	Unregister(ctx context.Context, inst model.Instance) bool
}

// IdentityChecker validates an access token, returning a label for logs.
type IdentityChecker func(ctx context.Context, token string) (string, error)
