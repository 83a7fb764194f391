package asynchook

import (
	"sync"
	"testing"

	"github.com/unkn0wn-root/pagesnap"
)

type countHooks struct {
	pagesnap.NopHooks
	mu       sync.Mutex
	repaired int
	missing  []string
}

func (c *countHooks) SnapshotRepaired(string, int, int64) {
	c.mu.Lock()
	c.repaired++
	c.mu.Unlock()
}

func (c *countHooks) CursorMissing(id string) {
	c.mu.Lock()
	c.missing = append(c.missing, id)
	c.mu.Unlock()
}

func TestEventsDeliveredBeforeClose(t *testing.T) {
	inner := &countHooks{}
	h := New(inner, 2, 64)
	for i := 0; i < 10; i++ {
		h.SnapshotRepaired("c", 1, 10)
	}
	h.CursorMissing("gone")
	h.Close()

	if inner.repaired != 10 {
		t.Fatalf("repaired = %d, want 10", inner.repaired)
	}
	if len(inner.missing) != 1 || inner.missing[0] != "gone" {
		t.Fatalf("missing = %v", inner.missing)
	}
	if h.Dropped() != 0 {
		t.Fatalf("Dropped = %d, want 0", h.Dropped())
	}
}

type blockingHooks struct {
	pagesnap.NopHooks
	release chan struct{}
}

func (b *blockingHooks) CursorMissing(string) { <-b.release }

func TestFullQueueDrops(t *testing.T) {
	inner := &blockingHooks{release: make(chan struct{})}
	h := New(inner, 1, 1)

	// one event parks the worker, one fills the queue, the rest drop.
	for i := 0; i < 10; i++ {
		h.CursorMissing("c")
	}
	close(inner.release)
	h.Close()

	if d := h.Dropped(); d < 8 {
		t.Fatalf("Dropped = %d, want at least 8", d)
	}
}

func TestEventsAfterCloseAreDropped(t *testing.T) {
	h := New(pagesnap.NopHooks{}, 1, 4)
	h.Close()
	h.EntryCorrupt("k", "frame")
	if h.Dropped() != 1 {
		t.Fatalf("Dropped = %d, want 1", h.Dropped())
	}
}
