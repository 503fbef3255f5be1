package eventbus

import (
	"context"
	"sync"
	"time"

	"max-notify/internal/model"
	pkgLog "max-notify/pkg/log"
)

const defaultBuffer = 64

// Local is the in-process bus. Slow subscribers lose messages instead of
// blocking the publisher.
type Local struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscription
	nextID uint64
	now    func() time.Time
	l      pkgLog.Logger
}

type subscription struct {
	ch     chan Message
	filter Filter
}

func NewLocal(l pkgLog.Logger) *Local {
	return &Local{
		subs: make(map[uint64]*subscription),
		now:  time.Now,
		l:    l,
	}
}

// Subscribe registers a receiver. The returned cancel func closes the channel.
func (b *Local) Subscribe(buffer int, filter Filter) (<-chan Message, func()) {
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	sub := &subscription{ch: make(chan Message, buffer), filter: filter}
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(sub.ch)
			b.mu.Unlock()
		})
	}
	return sub.ch, cancel
}

// Fire never blocks and never fails.
func (b *Local) Fire(ctx context.Context, eventType string, data model.Event) error {
	msg := Message{EventType: eventType, Data: data, FiredAt: b.now().UTC()}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if sub.filter != nil && !sub.filter(msg) {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			b.l.Warnf(ctx, "eventbus: subscriber queue full, dropped %s for entry %s", eventType, data.ConfigEntryID)
		}
	}
	return nil
}

// Subscribers returns the number of active subscriptions.
func (b *Local) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
