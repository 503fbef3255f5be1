package instance_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"max-notify/internal/instance"
	"max-notify/internal/model"
	"max-notify/internal/polling"
)

// ── Mocks ──────────────────────────────────────────────────────────────────

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, args ...interface{})                  {}
func (m *mockLogger) Debugf(ctx context.Context, format string, args ...interface{})  {}
func (m *mockLogger) Info(ctx context.Context, args ...interface{})                   {}
func (m *mockLogger) Infof(ctx context.Context, format string, args ...interface{})   {}
func (m *mockLogger) Warn(ctx context.Context, args ...interface{})                   {}
func (m *mockLogger) Warnf(ctx context.Context, format string, args ...interface{})   {}
func (m *mockLogger) Error(ctx context.Context, args ...interface{})                  {}
func (m *mockLogger) Errorf(ctx context.Context, format string, args ...interface{})  {}
func (m *mockLogger) DPanic(ctx context.Context, args ...interface{})                 {}
func (m *mockLogger) DPanicf(ctx context.Context, format string, args ...interface{}) {}
func (m *mockLogger) Panic(ctx context.Context, args ...interface{})                  {}
func (m *mockLogger) Panicf(ctx context.Context, format string, args ...interface{})  {}
func (m *mockLogger) Fatal(ctx context.Context, args ...interface{})                  {}
func (m *mockLogger) Fatalf(ctx context.Context, format string, args ...interface{})  {}

// recorder captures lifecycle calls in order, e.g. "start:a", "unregister:b".
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.calls
	r.calls = nil
	return out
}

type fakePoller struct{ rec *recorder }

func (f fakePoller) Start(inst model.Instance) *polling.Loop {
	f.rec.add("start:" + inst.ID)
	return new(polling.Loop)
}

func (f fakePoller) Stop(ctx context.Context, id string) {
	f.rec.add("stop:" + id)
}

type fakeSubs struct {
	rec *recorder
	ok  bool
}

func (f fakeSubs) Register(ctx context.Context, inst model.Instance) bool {
	f.rec.add("register:" + inst.ID)
	return f.ok
}

func (f fakeSubs) Unregister(ctx context.Context, inst model.Instance) bool {
	f.rec.add("unregister:" + inst.ID)
	return true
}

func setup(cooldown time.Duration, identity instance.IdentityChecker) (*instance.Registry, instance.Manager, *recorder) {
	rec := &recorder{}
	reg := instance.NewRegistry()
	m := instance.New(reg, fakePoller{rec}, fakeSubs{rec: rec, ok: true}, identity, cooldown, &mockLogger{})
	return reg, m, rec
}

func equalCalls(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls = %v, want %v", got, want)
		}
	}
}

// ── Tests ──────────────────────────────────────────────────────────────────

func TestApply(t *testing.T) {
	ctx := context.Background()
	polled := model.Instance{ID: "a", AccessToken: "t", ReceiveMode: model.ReceiveModePolling}
	hooked := model.Instance{ID: "b", AccessToken: "t", ReceiveMode: model.ReceiveModeWebhook}
	quiet := model.Instance{ID: "c", AccessToken: "t", ReceiveMode: model.ReceiveModeSendOnly}

	reg, m, rec := setup(time.Millisecond, nil)

	m.Apply(ctx, []model.Instance{polled, hooked, quiet})
	equalCalls(t, rec.take(), []string{"start:a", "register:b"})
	if _, ok := reg.Get("c"); !ok {
		t.Error("send-only entry must still be registered")
	}

	t.Run("unchanged config is a no-op", func(t *testing.T) {
		m.Apply(ctx, []model.Instance{polled, hooked, quiet})
		equalCalls(t, rec.take(), nil)
	})

	t.Run("mode switch reloads the entry", func(t *testing.T) {
		switched := polled
		switched.ReceiveMode = model.ReceiveModeWebhook
		m.Apply(ctx, []model.Instance{switched, hooked, quiet})
		equalCalls(t, rec.take(), []string{"stop:a", "register:a"})

		got, _ := reg.Get("a")
		if got.ReceiveMode != model.ReceiveModeWebhook {
			t.Errorf("registry not updated: %v", got.ReceiveMode)
		}
	})

	t.Run("removed entries are unloaded", func(t *testing.T) {
		m.Apply(ctx, []model.Instance{quiet})
		calls := rec.take()
		if len(calls) != 2 {
			t.Fatalf("calls = %v", calls)
		}
		if _, ok := reg.Get("a"); ok {
			t.Error("a must be removed from the registry")
		}
		if len(reg.List()) != 1 {
			t.Errorf("List() = %v", reg.List())
		}
	})

	t.Run("shutdown unloads everything", func(t *testing.T) {
		m.Apply(ctx, []model.Instance{polled, quiet})
		rec.take()
		m.Shutdown(ctx)
		equalCalls(t, rec.take(), []string{"stop:a"})
		if len(reg.List()) != 0 {
			t.Error("registry must be empty after shutdown")
		}
	})
}

func TestSetupIdentity(t *testing.T) {
	var checked []string
	identity := func(ctx context.Context, token string) (string, error) {
		checked = append(checked, token)
		if token == "bad" {
			return "", errors.New("401")
		}
		return "bot", nil
	}
	_, m, rec := setup(time.Millisecond, identity)

	m.Setup(context.Background(), model.Instance{ID: "x", AccessToken: "bad", ReceiveMode: model.ReceiveModePolling})
	m.Setup(context.Background(), model.Instance{ID: "y", ReceiveMode: model.ReceiveModeSendOnly})

	if len(checked) != 1 || checked[0] != "bad" {
		t.Errorf("identity checks = %v", checked)
	}
	equalCalls(t, rec.take(), []string{"start:x"})
}

func TestSchedule(t *testing.T) {
	reg, m, rec := setup(30*time.Millisecond, nil)

	first := model.Instance{ID: "a", AccessToken: "t", ReceiveMode: model.ReceiveModePolling}
	second := model.Instance{ID: "b", AccessToken: "t", ReceiveMode: model.ReceiveModePolling}

	m.Schedule([]model.Instance{first})
	m.Schedule([]model.Instance{second})

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := reg.Get("b"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("scheduled apply never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(60 * time.Millisecond)
	equalCalls(t, rec.take(), []string{"start:b"})
	if _, ok := reg.Get("a"); ok {
		t.Error("superseded config must not be applied")
	}
}

func TestScheduleAfterShutdown(t *testing.T) {
	t.Run("pending reload is dropped", func(t *testing.T) {
		reg, m, rec := setup(30*time.Millisecond, nil)

		m.Schedule([]model.Instance{{ID: "a", AccessToken: "t", ReceiveMode: model.ReceiveModePolling}})
		m.Shutdown(context.Background())

		time.Sleep(80 * time.Millisecond)
		if _, ok := reg.Get("a"); ok {
			t.Error("reload scheduled before shutdown must not run")
		}
		equalCalls(t, rec.take(), nil)
	})

	t.Run("later schedule is ignored", func(t *testing.T) {
		reg, m, rec := setup(10*time.Millisecond, nil)

		m.Shutdown(context.Background())
		m.Schedule([]model.Instance{{ID: "b", AccessToken: "t", ReceiveMode: model.ReceiveModePolling}})

		time.Sleep(50 * time.Millisecond)
		if _, ok := reg.Get("b"); ok {
			t.Error("schedule after shutdown must be a no-op")
		}
		equalCalls(t, rec.take(), nil)
	})
}
