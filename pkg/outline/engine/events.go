package engine

import (
	"sync"

	"github.com/google/uuid"
)

// Change describes what a mutation touched, with enough payload for a
// subscriber to decide what to re-render.
type Change struct {
	Tree bool // index contents changed
	View bool // selection, focus, or expansion changed
}

// Subscriber receives change notifications on a buffered channel.
type Subscriber struct {
	ID      string
	Changes chan Change
}

// Broadcaster distributes change notifications to subscribers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	closed      bool
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[string]*Subscriber)}
}

// Subscribe registers a new subscriber.
func (b *Broadcaster) Subscribe() *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	sub := &Subscriber{
		ID:      uuid.New().String(),
		Changes: make(chan Change, 16),
	}
	b.subscribers[sub.ID] = sub
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subscribers[id]; ok {
		close(sub.Changes)
		delete(b.subscribers, id)
	}
}

// Notify sends a change to all subscribers. Slow subscribers drop
// changes rather than block the owner.
func (b *Broadcaster) Notify(change Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, sub := range b.subscribers {
		select {
		case sub.Changes <- change:
		default:
		}
	}
}

// Close closes the broadcaster and all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subscribers {
		close(sub.Changes)
	}
	b.subscribers = make(map[string]*Subscriber)
}

// SubscriberCount returns the number of active subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
