package notify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	h := NewHub(4)
	sub := h.Subscribe("scan-1")

	h.Publish(Event{ScanID: "scan-1", Progress: 15, Message: "auth"})

	ev := <-sub.Events()
	assert.Equal(t, "scan-1", ev.ScanID)
	assert.Equal(t, 15, ev.Progress)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestPublishIsScopedToScanID(t *testing.T) {
	h := NewHub(4)
	a := h.Subscribe("scan-a")
	b := h.Subscribe("scan-b")

	h.Publish(Event{ScanID: "scan-a", Progress: 50})

	ev := <-a.Events()
	assert.Equal(t, "scan-a", ev.ScanID)
	select {
	case ev := <-b.Events():
		t.Fatalf("unexpected event for scan-b: %+v", ev)
	default:
	}
}

func TestSlowSubscriberDropsOldest(t *testing.T) {
	h := NewHub(2)
	sub := h.Subscribe("scan-1")

	h.Publish(Event{ScanID: "scan-1", Progress: 15})
	h.Publish(Event{ScanID: "scan-1", Progress: 35})
	h.Publish(Event{ScanID: "scan-1", Progress: 50})

	// Buffer of 2: the oldest checkpoint is gone, the newest two remain.
	ev := <-sub.Events()
	assert.Equal(t, 35, ev.Progress)
	ev = <-sub.Events()
	assert.Equal(t, 50, ev.Progress)
}

func TestDoneEventClosesSubscriptions(t *testing.T) {
	h := NewHub(4)
	sub := h.Subscribe("scan-1")

	h.Publish(Event{ScanID: "scan-1", Progress: 100, Status: "completed", Done: true})

	ev, ok := <-sub.Events()
	require.True(t, ok)
	assert.True(t, ev.Done)

	_, ok = <-sub.Events()
	assert.False(t, ok, "channel should be closed after terminal event")
	assert.Equal(t, 0, h.SubscriberCount("scan-1"))
}

func TestUnsubscribeAfterDoneIsSafe(t *testing.T) {
	h := NewHub(4)
	sub := h.Subscribe("scan-1")

	h.Publish(Event{ScanID: "scan-1", Done: true})
	// Must not panic on the already-closed channel.
	h.Unsubscribe("scan-1", sub)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	h := NewHub(4)
	h.Publish(Event{ScanID: "scan-1", Progress: 15})
	assert.Equal(t, 0, h.SubscriberCount("scan-1"))
}

func TestConcurrentSubscribeAndPublish(t *testing.T) {
	h := NewHub(8)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		sub := h.Subscribe("scan-1")
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range sub.Events() {
			}
		}()
	}

	for p := 5; p <= 95; p += 10 {
		h.Publish(Event{ScanID: "scan-1", Progress: p})
	}
	h.Publish(Event{ScanID: "scan-1", Progress: 100, Done: true})
	wg.Wait()
}
