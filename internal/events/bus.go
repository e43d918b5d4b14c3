// Package events provides the in-process publish/subscribe bus connecting
// the record stores, the alert trigger, and the websocket hub.
package events

import (
	"sync"
	"time"
)

// Event types published on the bus
const (
	TypeDirectiveAdded    = "directive_added"
	TypeDirectiveStatus   = "directive_status"
	TypeWorkCardAdded     = "workcard_added"
	TypeWorkCardDeleted   = "workcard_deleted"
	TypeWorkCardScheduled = "workcard_scheduled"
	TypeWorkCardCompleted = "workcard_completed"
	TypeWorkCardsChanged  = "workcards_changed"
	TypeComplianceAlert   = "compliance_alert"
)

// Event is a single change notification
type Event struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Bus is a fan-out pub/sub bus. Publish never blocks: subscribers that fall
// behind lose events rather than stall mutators.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	buffer int
}

// NewBus creates a bus with the given per-subscriber buffer size
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus{
		subs:   make(map[int]chan Event),
		buffer: buffer,
	}
}

// Publish delivers the event to all current subscribers
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Subscriber buffer full, drop the event for that subscriber
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel function must be
// called to release the subscription.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.buffer)
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// SubscriberCount returns the number of active subscribers
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
