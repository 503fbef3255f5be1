package instance

import (
	"context"
	"time"

	"max-notify/internal/model"
)

func (m *manager) Setup(ctx context.Context, inst model.Instance) {
	m.checkIdentity(ctx, inst)

	switch inst.ReceiveMode {
	case model.ReceiveModePolling:
		if m.poller.Start(inst) != nil {
			m.l.Infof(ctx, "instance: entry_id=%s receiving via long polling", inst.ID)
		}
	case model.ReceiveModeWebhook:
		if !m.subs.Register(ctx, inst) {
			m.l.Warnf(ctx, "instance: webhook registration failed for entry_id=%s", inst.ID)
		}
	default:
		m.l.Infof(ctx, "instance: entry_id=%s is send-only", inst.ID)
	}
}

func (m *manager) Unload(ctx context.Context, inst model.Instance) {
	switch inst.ReceiveMode {
	case model.ReceiveModePolling:
		m.poller.Stop(ctx, inst.ID)
	case model.ReceiveModeWebhook:
		m.subs.Unregister(ctx, inst)
	}
	m.l.Infof(ctx, "instance: entry_id=%s unloaded", inst.ID)
}

func (m *manager) Apply(ctx context.Context, instances []model.Instance) {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	m.apply(ctx, instances)
}

// apply reconciles the registry with instances. Callers hold applyMu.
func (m *manager) apply(ctx context.Context, instances []model.Instance) {
	wanted := make(map[string]model.Instance, len(instances))
	for _, inst := range instances {
		wanted[inst.ID] = inst
	}

	for _, old := range m.registry.List() {
		if _, ok := wanted[old.ID]; !ok {
			m.registry.remove(old.ID)
			m.Unload(ctx, old)
		}
	}

	for _, inst := range instances {
		old, exists := m.registry.Get(inst.ID)
		switch {
		case !exists:
			m.registry.put(inst)
			m.Setup(ctx, inst)
		case !old.Equal(inst):
			m.l.Infof(ctx, "instance: options changed for entry_id=%s, reloading", inst.ID)
			m.Unload(ctx, old)
			m.registry.put(inst)
			m.Setup(ctx, inst)
		}
	}
}

func (m *manager) Schedule(instances []model.Instance) {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()

	if m.closed {
		return
	}
	m.pending = instances
	m.hasPending = true
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.cooldown, m.applyPending)
}

func (m *manager) applyPending() {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	// Shutdown may have won the race for applyMu after the timer fired.
	m.timerMu.Lock()
	next, ok := m.pending, m.hasPending && !m.closed
	m.pending, m.hasPending = nil, false
	m.timerMu.Unlock()

	if ok {
		m.apply(context.Background(), next)
	}
}

func (m *manager) Shutdown(ctx context.Context) {
	m.timerMu.Lock()
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
	}
	m.pending, m.hasPending = nil, false
	m.timerMu.Unlock()

	m.Apply(ctx, nil)
}

func (m *manager) checkIdentity(ctx context.Context, inst model.Instance) {
	if m.identity == nil || inst.AccessToken == "" {
		return
	}
	who, err := m.identity(ctx, inst.AccessToken)
	if err != nil {
		m.l.Warnf(ctx, "instance: token check failed for entry_id=%s: %v", inst.ID, err)
		return
	}
	m.l.Infof(ctx, "instance: entry_id=%s connected as %s", inst.ID, who)
}
