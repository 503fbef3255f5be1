package ingest

import (
	"sync"
	"time"

	"max-notify/internal/model"
)

// DedupStore suppresses repeated delivery of one logical update within a window.
// It is shared by every instance and receive path; keys are global.
type DedupStore struct {
	mu             sync.Mutex
	recent         map[string]time.Time
	callbackWindow time.Duration
	defaultWindow  time.Duration
}

func NewDedupStore(callbackWindow, defaultWindow time.Duration) *DedupStore {
	return &DedupStore{
		recent:         make(map[string]time.Time),
		callbackWindow: callbackWindow,
		defaultWindow:  defaultWindow,
	}
}

// ShouldProcess reports whether key is new at now and, if so, records it until
// now plus the window for updateType. Expired entries are swept on every call.
func (s *DedupStore) ShouldProcess(key, updateType string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, expiry := range s.recent {
		if !expiry.After(now) {
			delete(s.recent, k)
		}
	}

	if expiry, ok := s.recent[key]; ok && expiry.After(now) {
		return false
	}
	s.recent[key] = now.Add(s.window(updateType))
	return true
}

func (s *DedupStore) window(updateType string) time.Duration {
	if updateType == model.UpdateMessageCallback {
		return s.callbackWindow
	}
	return s.defaultWindow
}

// Len returns the number of live entries as of the last sweep.
func (s *DedupStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recent)
}
