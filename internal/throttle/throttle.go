// Package throttle bounds how often a single client may start new scans
// or workflow executions.
package throttle

import (
	"sync"
	"time"
)

// Throttle is a per-client sliding-window admission check: at most Limit
// admitted requests in the trailing Window. It is approximate, in-memory
// and per-process — abuse mitigation, not a correctness guarantee.
type Throttle struct {
	limit  int
	window time.Duration

	mu   sync.Mutex
	hits map[string][]time.Time
	now  func() time.Time
}

func New(limit int, window time.Duration) *Throttle {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &Throttle{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow reports whether a request from client may proceed. The client's
// window is pruned before counting; rejected requests leave no entry behind.
func (t *Throttle) Allow(client string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	cutoff := now.Add(-t.window)

	kept := t.hits[client][:0]
	for _, ts := range t.hits[client] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= t.limit {
		t.hits[client] = kept
		return false
	}

	t.hits[client] = append(kept, now)
	return true
}

// Prune discards clients whose every entry has aged out of the window.
// Called opportunistically so the map does not grow with one-off clients.
func (t *Throttle) Prune() {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-t.window)
	for client, entries := range t.hits {
		live := false
		for _, ts := range entries {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(t.hits, client)
		}
	}
}
