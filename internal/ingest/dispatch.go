package ingest

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"max-notify/internal/eventbus"
	"max-notify/internal/model"
	pkgLog "max-notify/pkg/log"
)

// Dispatcher applies the visibility policy and fires accepted events.
type Dispatcher struct {
	bus eventbus.Bus
	l   pkgLog.Logger
}

func NewDispatcher(bus eventbus.Bus, l pkgLog.Logger) *Dispatcher {
	return &Dispatcher{bus: bus, l: l}
}

// ShouldFire reports whether ev passes the instance's command allowlist.
// Instances with buttons see everything; callbacks and plain text always pass.
func ShouldFire(inst model.Instance, ev model.Event) bool {
	if inst.HasButtons() {
		return true
	}
	if ev.UpdateType != model.UpdateMessageCreated || ev.Command == nil || *ev.Command == "" {
		return true
	}
	allowed := inst.AllowedCommands()
	if len(allowed) == 0 {
		return true
	}
	return slices.Contains(allowed, strings.ToLower(*ev.Command))
}

// MaybeEmit fires ev unless the allowlist rejects it. It reports whether the event was fired.
func (d *Dispatcher) MaybeEmit(ctx context.Context, inst model.Instance, ev model.Event) (bool, error) {
	if !ShouldFire(inst, ev) {
		d.l.Debugf(ctx, "ingest: command %s not in allowlist, skip event", *ev.Command)
		return false, nil
	}
	if err := d.bus.Fire(ctx, model.EventReceived, ev); err != nil {
		return true, fmt.Errorf("fire %s: %w", model.EventReceived, err)
	}
	d.l.Debugf(ctx, "ingest: fired %s: update_type=%s", model.EventReceived, ev.UpdateType)
	return true, nil
}
