// Package events is the mutation notification mechanism the rest of the
// application subscribes to. The core services publish after each directory,
// reconciler or ledger mutation; subscribers (snapshot autosave, UIs, tests)
// react outside the directory lock. The core never depends on who listens.
package events

import (
	"sync"
)

// Kind labels what changed.
type Kind string

const (
	EmployeeCreated Kind = "employee.created"
	EmployeeUpdated Kind = "employee.updated"
	EmployeeRemoved Kind = "employee.removed"
	CheckApplied    Kind = "check.applied"
	RecordRemoved   Kind = "record.removed"
	BalanceUpdated  Kind = "balance.updated"
)

// Event describes one mutation of the directory state.
type Event struct {
	Kind       Kind
	EmployeeID int
}

// Hub fans mutation events out to subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe registers a new subscriber and returns the event channel and a
// cleanup function.
func (h *Hub) Subscribe() (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 64)
	h.subscribers[ch] = struct{}{}

	cleanup := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subscribers[ch]; !ok {
			return
		}
		delete(h.subscribers, ch)
		close(ch)
	}

	return ch, cleanup
}

// Publish sends an event to all subscribers. Publishing never blocks; a
// subscriber with a full channel misses the event rather than stalling the
// mutation path.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
