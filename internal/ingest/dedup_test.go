package ingest_test

import (
	"sync"
	"testing"
	"time"

	"max-notify/internal/ingest"
	"max-notify/internal/model"
)

func TestDedupStore(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("suppresses within window and admits after", func(t *testing.T) {
		s := ingest.NewDedupStore(3*time.Second, 15*time.Second)

		if !s.ShouldProcess("k", model.UpdateMessageCreated, base) {
			t.Fatal("first sighting must pass")
		}
		if s.ShouldProcess("k", model.UpdateMessageCreated, base.Add(14*time.Second)) {
			t.Error("repeat inside default window must be suppressed")
		}
		if !s.ShouldProcess("k", model.UpdateMessageCreated, base.Add(15*time.Second)) {
			t.Error("repeat at window end must pass")
		}
	})

	t.Run("callback window is shorter", func(t *testing.T) {
		s := ingest.NewDedupStore(3*time.Second, 15*time.Second)

		s.ShouldProcess("cb", model.UpdateMessageCallback, base)
		if s.ShouldProcess("cb", model.UpdateMessageCallback, base.Add(2*time.Second)) {
			t.Error("callback inside 3s must be suppressed")
		}
		if !s.ShouldProcess("cb", model.UpdateMessageCallback, base.Add(3*time.Second)) {
			t.Error("callback after 3s is a new press")
		}
	})

	t.Run("empty key is an ordinary key", func(t *testing.T) {
		s := ingest.NewDedupStore(time.Second, time.Second)

		if !s.ShouldProcess("", "", base) {
			t.Fatal("first empty key must pass")
		}
		if s.ShouldProcess("", "", base) {
			t.Error("second empty key must be suppressed")
		}
	})

	t.Run("expired entries are swept", func(t *testing.T) {
		s := ingest.NewDedupStore(time.Second, time.Second)
		s.ShouldProcess("a", "", base)
		s.ShouldProcess("b", "", base)
		s.ShouldProcess("c", "", base.Add(2*time.Second))

		if n := s.Len(); n != 1 {
			t.Errorf("Len() = %d after sweep, want 1", n)
		}
	})

	t.Run("concurrent check admits exactly one", func(t *testing.T) {
		s := ingest.NewDedupStore(time.Minute, time.Minute)

		var wg sync.WaitGroup
		var mu sync.Mutex
		passed := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.ShouldProcess("same", model.UpdateMessageCreated, base) {
					mu.Lock()
					passed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if passed != 1 {
			t.Errorf("%d goroutines passed, want 1", passed)
		}
	})
}
