// Package live fans out "aggregate changed" notifications to subscribers of
// a session. Notifications carry no payload: a subscriber that wakes up
// re-reads the aggregate, so missed or merged notifications lose nothing.
package live

import (
	"sync"
)

// Subscription receives a value on C whenever the session's aggregate may
// have changed. Bursts coalesce into one pending notification.
type Subscription struct {
	C <-chan struct{}

	ch        chan struct{}
	sessionID string
	broker    *Broker
	once      sync.Once
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.remove(s)
	})
}

// Broker tracks subscriptions per session.
type Broker struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	onSize func(n int)
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[*Subscription]struct{})}
}

// OnSizeChange registers f to be called with the total subscriber count
// after every subscribe or unsubscribe.
func (b *Broker) OnSizeChange(f func(n int)) {
	b.mu.Lock()
	b.onSize = f
	b.mu.Unlock()
}

// Subscribe registers interest in sessionID.
func (b *Broker) Subscribe(sessionID string) *Subscription {
	ch := make(chan struct{}, 1)
	sub := &Subscription{C: ch, ch: ch, sessionID: sessionID, broker: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[sessionID]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	b.reportLocked()
	return sub
}

// Publish notifies every subscriber of sessionID. It never blocks.
func (b *Broker) Publish(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[sessionID] {
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers returns the number of subscriptions for sessionID.
func (b *Broker) Subscribers(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[sessionID])
}

func (b *Broker) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.subs[s.sessionID]
	delete(set, s)
	if len(set) == 0 {
		delete(b.subs, s.sessionID)
	}
	b.reportLocked()
}

func (b *Broker) reportLocked() {
	if b.onSize == nil {
		return
	}
	n := 0
	for _, set := range b.subs {
		n += len(set)
	}
	b.onSize(n)
}
