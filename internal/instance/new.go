package instance

import (
	"sync"
	"time"

	"max-notify/internal/model"
	pkgLog "max-notify/pkg/log"
)

// DefaultReloadCooldown debounces bursts of config change notifications.
const DefaultReloadCooldown = 500 * time.Millisecond

type manager struct {
	registry *Registry
	poller   Poller
	subs     Subscriber
	identity IdentityChecker
	cooldown time.Duration
	l        pkgLog.Logger

	applyMu sync.Mutex

	timerMu    sync.Mutex
	timer      *time.Timer
	pending    []model.Instance
	hasPending bool
	closed     bool // set by Shutdown; Schedule is a no-op afterwards
}

// New builds the lifecycle manager. identity may be nil.
func New(registry *Registry, poller Poller, subs Subscriber, identity IdentityChecker, cooldown time.Duration, l pkgLog.Logger) Manager {
	if cooldown <= 0 {
		cooldown = DefaultReloadCooldown
	}
	return &manager{
		registry: registry,
		poller:   poller,
		subs:     subs,
		identity: identity,
		cooldown: cooldown,
		l:        l,
	}
}
