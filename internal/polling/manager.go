package polling

import (
	"context"
	"errors"
	"time"

	"max-notify/internal/ingest"
	"max-notify/internal/model"
	"max-notify/pkg/maxbot"
)

func (m *manager) Start(inst model.Instance) *Loop {
	if inst.AccessToken == "" {
		m.l.Warnf(m.baseCtx, "polling: no access token for entry_id=%s, not starting", inst.ID)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if lp, ok := m.loops[inst.ID]; ok {
		return lp
	}

	ctx, cancel := context.WithCancel(m.baseCtx)
	lp := &Loop{inst: inst, cancel: cancel, done: make(chan struct{})}
	m.loops[inst.ID] = lp
	delete(m.markers, inst.ID)

	go m.run(ctx, lp)
	return lp
}

func (m *manager) Stop(ctx context.Context, id string) {
	m.mu.Lock()
	lp, ok := m.loops[id]
	delete(m.loops, id)
	delete(m.markers, id)
	m.mu.Unlock()

	if !ok {
		return
	}
	lp.cancel()

	select {
	case <-lp.done:
	case <-ctx.Done():
		m.l.Warnf(ctx, "polling: loop for entry_id=%s did not exit in time: %v", id, ctx.Err())
	}
}

func (m *manager) StopAll(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.loops))
	for id := range m.loops {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Stop(ctx, id)
	}
}

func (m *manager) Running(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.loops[id]
	return ok
}

func (m *manager) Marker(id string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	marker, ok := m.markers[id]
	return marker, ok
}

// setMarker stores the cursor only while lp is still the registered loop, so a
// stopped loop cannot leak its cursor into a restarted one.
func (m *manager) setMarker(ctx context.Context, lp *Loop, marker string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx.Err() != nil || m.loops[lp.inst.ID] != lp {
		return
	}
	m.markers[lp.inst.ID] = marker
}

func (m *manager) forget(lp *Loop) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loops[lp.inst.ID] == lp {
		delete(m.loops, lp.inst.ID)
		delete(m.markers, lp.inst.ID)
	}
}

func (m *manager) run(ctx context.Context, lp *Loop) {
	defer close(lp.done)
	defer m.forget(lp)

	id := lp.inst.ID
	client := m.newClient(lp.inst.AccessToken)
	m.l.Infof(ctx, "polling: long polling started for entry_id=%s", id)

	for {
		if ctx.Err() != nil {
			m.l.Infof(context.Background(), "polling: long polling stopped for entry_id=%s", id)
			return
		}

		marker, _ := m.Marker(id)
		list, err := client.GetUpdates(ctx, maxbot.GetUpdatesParams{
			Timeout: m.cfg.Timeout,
			Limit:   m.cfg.Limit,
			Types:   m.cfg.Types,
			Marker:  marker,
		})
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			var se *maxbot.StatusError
			if errors.As(err, &se) {
				m.l.Warnf(ctx, "polling: GET /updates failed for entry_id=%s: status=%d body=%s", id, se.StatusCode, se.Body)
			} else {
				m.l.Warnf(ctx, "polling: GET /updates error for entry_id=%s: %v", id, err)
			}
			sleep(ctx, m.cfg.RetryDelay)
			continue
		}

		if next, ok := list.NextMarker(); ok {
			m.setMarker(ctx, lp, next)
		}

		if len(list.Updates) == 0 {
			sleep(ctx, m.cfg.EmptyDelay)
			continue
		}

		m.dispatchBatch(ctx, lp, list.Objects())
	}
}

// dispatchBatch hands every update to the submitter, dropping repeats inside one response.
func (m *manager) dispatchBatch(ctx context.Context, lp *Loop, updates []map[string]any) {
	seen := make(map[string]struct{}, len(updates))
	for _, raw := range updates {
		upd := model.Update(raw)
		key := ingest.DedupKey(upd)
		if _, dup := seen[key]; dup {
			m.l.Debugf(ctx, "polling: skip duplicate in batch: %s", key)
			continue
		}
		seen[key] = struct{}{}
		m.submitter.Submit(lp.inst, upd)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
