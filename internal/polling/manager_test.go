package polling_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"max-notify/internal/model"
	"max-notify/internal/polling"
	"max-notify/pkg/maxbot"
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

type response struct {
	list *maxbot.UpdateList
	err  error
}

// fakeClient replays scripted responses, then blocks until the loop is cancelled.
type fakeClient struct {
	mu     sync.Mutex
	script []response
	calls  chan maxbot.GetUpdatesParams
}

func newFakeClient(script ...response) *fakeClient {
	return &fakeClient{script: script, calls: make(chan maxbot.GetUpdatesParams, 100)}
}

func (f *fakeClient) GetUpdates(ctx context.Context, p maxbot.GetUpdatesParams) (*maxbot.UpdateList, error) {
	f.calls <- p

	f.mu.Lock()
	if len(f.script) > 0 {
		r := f.script[0]
		f.script = f.script[1:]
		f.mu.Unlock()
		return r.list, r.err
	}
	f.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeClient) nextCall(t *testing.T) maxbot.GetUpdatesParams {
	t.Helper()
	select {
	case p := <-f.calls:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not call GetUpdates")
		return maxbot.GetUpdatesParams{}
	}
}

type fakeSubmitter struct {
	mu      sync.Mutex
	updates []model.Update
}

func (f *fakeSubmitter) Submit(inst model.Instance, upd model.Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, upd)
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func batch(marker string, updates ...string) response {
	list := &maxbot.UpdateList{}
	for _, u := range updates {
		list.Updates = append(list.Updates, json.RawMessage(u))
	}
	if marker != "" {
		list.Marker = json.RawMessage(marker)
	}
	return response{list: list}
}

var testConfig = polling.Config{
	Timeout:    1,
	Limit:      10,
	RetryDelay: 10 * time.Millisecond,
	EmptyDelay: 5 * time.Millisecond,
}

// ── Tests ──────────────────────────────────────────────────────────────────

func TestStart(t *testing.T) {
	t.Run("no token does not start", func(t *testing.T) {
		m := polling.New(func(string) polling.UpdatesClient { return newFakeClient() }, &fakeSubmitter{}, testConfig, &mockLogger{})
		if lp := m.Start(model.Instance{ID: "a"}); lp != nil {
			t.Error("Start() without token must return nil")
		}
		if m.Running("a") {
			t.Error("no loop should be registered")
		}
	})

	t.Run("at most one loop per instance", func(t *testing.T) {
		var mu sync.Mutex
		built := 0
		client := newFakeClient()
		m := polling.New(func(string) polling.UpdatesClient {
			mu.Lock()
			built++
			mu.Unlock()
			return client
		}, &fakeSubmitter{}, testConfig, &mockLogger{})
		inst := model.Instance{ID: "a", AccessToken: "tok"}

		first := m.Start(inst)
		second := m.Start(inst)
		if first == nil || first != second {
			t.Fatal("second Start must return the running loop")
		}
		client.nextCall(t)
		m.Stop(context.Background(), "a")

		mu.Lock()
		defer mu.Unlock()
		if built != 1 {
			t.Errorf("client built %d times, want 1", built)
		}
	})
}

func TestLoop(t *testing.T) {
	inst := model.Instance{ID: "a", AccessToken: "tok"}

	t.Run("marker advances and is sent on the next poll", func(t *testing.T) {
		client := newFakeClient(batch(`"m1"`, `{"update_id":1}`))
		sub := &fakeSubmitter{}
		m := polling.New(func(string) polling.UpdatesClient { return client }, sub, testConfig, &mockLogger{})

		m.Start(inst)
		first := client.nextCall(t)
		if first.Marker != "" {
			t.Errorf("first poll marker = %q, want none", first.Marker)
		}
		if len(first.Types) != 2 || first.Types[0] != model.UpdateMessageCreated || first.Types[1] != model.UpdateMessageCallback {
			t.Errorf("types = %v", first.Types)
		}
		if first.Timeout != 1 || first.Limit != 10 {
			t.Errorf("timeout/limit = %d/%d", first.Timeout, first.Limit)
		}

		second := client.nextCall(t)
		if second.Marker != "m1" {
			t.Errorf("second poll marker = %q, want m1", second.Marker)
		}
		if marker, ok := m.Marker("a"); !ok || marker != "m1" {
			t.Errorf("Marker() = %q, %v", marker, ok)
		}
		if sub.count() != 1 {
			t.Errorf("submitted %d updates, want 1", sub.count())
		}
		m.Stop(context.Background(), "a")
	})

	t.Run("restart resets marker", func(t *testing.T) {
		client := newFakeClient(batch(`123`, `{"update_id":1}`))
		m := polling.New(func(string) polling.UpdatesClient { return client }, &fakeSubmitter{}, testConfig, &mockLogger{})

		m.Start(inst)
		client.nextCall(t)
		if p := client.nextCall(t); p.Marker != "123" {
			t.Fatalf("marker = %q, want 123", p.Marker)
		}

		m.Stop(context.Background(), "a")
		if _, ok := m.Marker("a"); ok {
			t.Error("marker must be discarded on stop")
		}
		if m.Running("a") {
			t.Error("loop must be unregistered on stop")
		}

		m.Start(inst)
		if p := client.nextCall(t); p.Marker != "" {
			t.Errorf("restarted loop sent marker %q", p.Marker)
		}
		m.Stop(context.Background(), "a")
	})

	t.Run("error response is retried", func(t *testing.T) {
		client := newFakeClient(
			response{err: &maxbot.StatusError{Method: "GET", Path: "/updates", StatusCode: 502, Body: "bad gateway"}},
			batch(`"m2"`, `{"update_id":9}`),
		)
		sub := &fakeSubmitter{}
		m := polling.New(func(string) polling.UpdatesClient { return client }, sub, testConfig, &mockLogger{})

		m.Start(inst)
		client.nextCall(t)
		if p := client.nextCall(t); p.Marker != "" {
			t.Errorf("retry must reuse the old marker, got %q", p.Marker)
		}
		if p := client.nextCall(t); p.Marker != "m2" {
			t.Errorf("marker after recovery = %q", p.Marker)
		}
		if sub.count() != 1 {
			t.Errorf("submitted %d updates, want 1", sub.count())
		}
		m.Stop(context.Background(), "a")
	})

	t.Run("duplicates inside one batch are dropped", func(t *testing.T) {
		client := newFakeClient(batch(`"m"`,
			`{"update_id":1}`,
			`{"update_id":1}`,
			`"garbage"`,
			`{"update_type":"message_callback","callback":{"payload":"p","user_id":2},"message":{"recipient":{"chat_id":3},"message_id":"x"}}`,
			`{"update_type":"message_callback","callback":{"payload":"p","user_id":2},"message":{"recipient":{"chat_id":3},"message_id":"y"}}`,
		))
		sub := &fakeSubmitter{}
		m := polling.New(func(string) polling.UpdatesClient { return client }, sub, testConfig, &mockLogger{})

		m.Start(inst)
		client.nextCall(t)
		client.nextCall(t)
		m.Stop(context.Background(), "a")

		if sub.count() != 2 {
			t.Errorf("submitted %d updates, want 2", sub.count())
		}
	})

	t.Run("empty batch keeps polling", func(t *testing.T) {
		client := newFakeClient(batch(""), batch(""))
		m := polling.New(func(string) polling.UpdatesClient { return client }, &fakeSubmitter{}, testConfig, &mockLogger{})

		m.Start(inst)
		client.nextCall(t)
		client.nextCall(t)
		client.nextCall(t)
		if _, ok := m.Marker("a"); ok {
			t.Error("null marker must not be stored")
		}
		m.Stop(context.Background(), "a")
	})

	t.Run("stop waits for exit", func(t *testing.T) {
		client := newFakeClient()
		m := polling.New(func(string) polling.UpdatesClient { return client }, &fakeSubmitter{}, testConfig, &mockLogger{})

		lp := m.Start(inst)
		client.nextCall(t)
		m.Stop(context.Background(), "a")

		select {
		case <-lp.Done():
		default:
			t.Error("Stop returned before the loop exited")
		}
	})

	t.Run("instances are independent", func(t *testing.T) {
		clients := map[string]*fakeClient{"tok-a": newFakeClient(), "tok-b": newFakeClient()}
		m := polling.New(func(token string) polling.UpdatesClient { return clients[token] }, &fakeSubmitter{}, testConfig, &mockLogger{})

		m.Start(model.Instance{ID: "a", AccessToken: "tok-a"})
		m.Start(model.Instance{ID: "b", AccessToken: "tok-b"})
		clients["tok-a"].nextCall(t)
		clients["tok-b"].nextCall(t)

		m.Stop(context.Background(), "a")
		if !m.Running("b") {
			t.Error("stopping a must not stop b")
		}
		m.StopAll(context.Background())
		if m.Running("b") {
			t.Error("StopAll must stop b")
		}
	})
}
