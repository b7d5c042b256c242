package controller

import (
	"sync"
	"sync/atomic"
)

type EventType string

const (
	EventLoaded   EventType = "loaded"
	EventCreated  EventType = "created"
	EventUpdated  EventType = "updated"
	EventRemoved  EventType = "removed"
	EventFiltered EventType = "filtered"
	EventFailed   EventType = "failed"
)

// Event tells a subscriber that a controller's state changed. It carries no
// entity data; subscribers read the controller again.
type Event struct {
	Kind string
	Type EventType
	ID   string
}

// Broadcaster fans controller events out to subscribers.
type Broadcaster struct {
	subscribers map[uint64]chan Event
	nextID      atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan Event),
	}
}

func (b *Broadcaster) Subscribe() (uint64, <-chan Event) {
	id := b.nextID.Add(1)
	ch := make(chan Event, 32)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Broadcast(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			// Skip slow subscribers
		}
	}
}

// Close closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
