// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/pagesnap"
//	asynchook "github.com/unkn0wn-root/pagesnap/hooks/async"
//	"github.com/unkn0wn-root/pagesnap/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    MissingEvery:  10, // sample logs: ~every 10th missing cursor
//	    RepairedEvery: 1,  // log every repair
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	pager, _ := pagesnap.New(pagesnap.Options{
//	    Store: st,
//	    Hooks: hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/pagesnap"
)

type Hooks struct {
	inner   pagesnap.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ pagesnap.Hooks = (*Hooks)(nil)

func New(inner pagesnap.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events fired after
// Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped is the number of events discarded because the queue was full.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	defer func() {
		// send on closed queue after Close
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) CursorMissing(id string)  { h.try(func() { h.inner.CursorMissing(id) }) }
func (h *Hooks) EntryCorrupt(k, r string) { h.try(func() { h.inner.EntryCorrupt(k, r) }) }
func (h *Hooks) CursorCreated(id string, s int, t int64) {
	h.try(func() { h.inner.CursorCreated(id, s, t) })
}
func (h *Hooks) SnapshotRepaired(id string, n int, total int64) {
	h.try(func() { h.inner.SnapshotRepaired(id, n, total) })
}
func (h *Hooks) BackfillExhausted(id string, page, got, want int) {
	h.try(func() { h.inner.BackfillExhausted(id, page, got, want) })
}
