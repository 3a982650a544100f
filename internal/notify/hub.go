// Package notify fans progress events out to observers subscribed to a scan.
package notify

import (
	"sync"
	"time"
)

// Event is one progress notification for a scan. Delivery is best effort:
// no persistence, no replay for late subscribers, no cross-scan ordering.
type Event struct {
	ScanID    string    `json:"scan_id"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Done      bool      `json:"done,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscriber receives events for a single scan id over a bounded channel.
// When the buffer is full the oldest pending event is dropped, so a slow
// observer only loses intermediate checkpoints, never stalls the publisher.
type Subscriber struct {
	ch chan Event
}

// Events is the receive side of the subscription. The channel is closed on
// Unsubscribe and when the scan's terminal event has been delivered.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Hub routes events from the single per-scan publisher (the orchestrator)
// to any number of subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscriber]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[string]map[*Subscriber]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers interest in a scan id. Events published before the
// subscription are not replayed; late joiners read the registry first.
func (h *Hub) Subscribe(scanID string) *Subscriber {
	sub := &Subscriber{ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[scanID] == nil {
		h.subs[scanID] = make(map[*Subscriber]struct{})
	}
	h.subs[scanID][sub] = struct{}{}
	return sub
}

func (h *Hub) Unsubscribe(scanID string, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[scanID]; ok {
		if _, present := set[sub]; present {
			delete(set, sub)
			close(sub.ch)
		}
		if len(set) == 0 {
			delete(h.subs, scanID)
		}
	}
}

// Publish delivers an event to every subscriber of its scan id without
// blocking. Terminal events (Done) tear the subscription down afterwards.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	// Delivery happens under the read lock: sends are non-blocking, and
	// Unsubscribe cannot close a channel mid-publish.
	h.mu.RLock()
	for sub := range h.subs[ev.ScanID] {
		for {
			select {
			case sub.ch <- ev:
			default:
				// Buffer full: drop the oldest pending event and retry.
				select {
				case <-sub.ch:
				default:
				}
				continue
			}
			break
		}
	}
	h.mu.RUnlock()

	if ev.Done {
		h.closeScan(ev.ScanID)
	}
}

func (h *Hub) closeScan(scanID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[scanID] {
		close(sub.ch)
	}
	delete(h.subs, scanID)
}

// SubscriberCount reports how many observers are attached to a scan.
func (h *Hub) SubscriberCount(scanID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[scanID])
}
