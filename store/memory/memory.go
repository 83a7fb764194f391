// Package memory is an in-process, non-durable store.Store.
//
// Entries live in a mutex-guarded map and expire lazily on access. An optional
// sweep loop prunes expired entries that are never read again. Data is not
// shared across processes; use store/redis for that.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/unkn0wn-root/pagesnap/store"
)

type entry struct {
	ids        []string
	totalCount int64
	expiresAt  time.Time
}

// Config tunes the memory store. All fields are optional.
type Config struct {
	store.Limits
	CleanupInterval time.Duration // 0 disables the background sweep
	Logger          store.Logger
	Now             func() time.Time // test clock; defaults to time.Now
}

type Store struct {
	mu     sync.Mutex
	data   map[string]*entry
	limits store.Limits
	log    store.Logger
	now    func() time.Time

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ store.Store = (*Store)(nil)

func New(cfg Config) *Store {
	s := &Store{
		data:   make(map[string]*entry),
		limits: cfg.Limits.WithDefaults(),
		log:    store.OrNop(cfg.Logger),
		now:    cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if cfg.CleanupInterval > 0 {
		s.ticker = time.NewTicker(cfg.CleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.Cleanup()
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

func (s *Store) Limits() store.Limits { return s.limits }

func (s *Store) Store(_ context.Context, cursorID string, ids []string, totalCount int64) error {
	stored := store.Prepare(ids, s.limits.MaxIDs)

	s.mu.Lock()
	s.data[cursorID] = &entry{
		ids:        stored,
		totalCount: totalCount,
		expiresAt:  s.now().Add(s.limits.TTL),
	}
	s.mu.Unlock()

	s.log.Debug("memory store", store.Fields{
		"cursor_id": cursorID, "ids_count": len(stored), "total_count": totalCount, "ttl": s.limits.TTL,
	})
	return nil
}

func (s *Store) FetchPage(_ context.Context, cursorID string, offset, limit int) ([]string, error) {
	s.mu.Lock()
	e := s.live(cursorID)
	if e == nil {
		s.mu.Unlock()
		return nil, store.Expired("fetch page", cursorID)
	}
	out := store.Window(e.ids, offset, limit)
	s.mu.Unlock()

	s.log.Debug("memory fetch", store.Fields{
		"cursor_id": cursorID, "offset": offset, "limit": limit, "fetched": len(out),
	})
	return out, nil
}

func (s *Store) TotalCount(_ context.Context, cursorID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(cursorID)
	if e == nil {
		return 0, store.Expired("total count", cursorID)
	}
	return e.totalCount, nil
}

func (s *Store) StoredCount(_ context.Context, cursorID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(cursorID)
	if e == nil {
		return 0, store.Expired("stored count", cursorID)
	}
	return len(e.ids), nil
}

func (s *Store) Exists(_ context.Context, cursorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live(cursorID) != nil, nil
}

func (s *Store) Delete(_ context.Context, cursorID string) (bool, error) {
	s.mu.Lock()
	e := s.live(cursorID)
	delete(s.data, cursorID)
	s.mu.Unlock()

	s.log.Debug("memory delete", store.Fields{"cursor_id": cursorID, "deleted": e != nil})
	return e != nil, nil
}

func (s *Store) Touch(_ context.Context, cursorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(cursorID)
	if e == nil {
		return false, nil
	}
	e.expiresAt = s.now().Add(s.limits.TTL)
	return true, nil
}

func (s *Store) RemoveIDs(_ context.Context, cursorID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	e := s.live(cursorID)
	if e == nil {
		s.mu.Unlock()
		return 0, nil
	}
	var removed int
	e.ids, removed = store.Without(e.ids, ids)
	s.mu.Unlock()

	s.log.Debug("memory remove ids", store.Fields{"cursor_id": cursorID, "requested": len(ids), "removed": removed})
	return removed, nil
}

func (s *Store) DecrementTotalCount(_ context.Context, cursorID string, by int64) (int64, error) {
	s.mu.Lock()
	e := s.live(cursorID)
	if e == nil {
		s.mu.Unlock()
		return 0, nil
	}
	e.totalCount -= by
	total := e.totalCount
	s.mu.Unlock()

	s.log.Debug("memory decrement total", store.Fields{"cursor_id": cursorID, "by": by, "new_total": total})
	return total, nil
}

// Cleanup drops every expired entry.
func (s *Store) Cleanup() {
	now := s.now()
	removed := 0
	s.mu.Lock()
	for k, e := range s.data {
		if !now.Before(e.expiresAt) {
			delete(s.data, k)
			removed++
		}
	}
	s.mu.Unlock()
	if removed > 0 {
		s.log.Debug("memory sweep removed expired cursors", store.Fields{"removed": removed})
	}
}

// Clear drops all entries. Handy between tests.
func (s *Store) Clear() {
	s.mu.Lock()
	clear(s.data)
	s.mu.Unlock()
}

// Len is the number of entries held, expired ones included until swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *Store) Close(_ context.Context) error {
	s.closeOnce.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			s.ticker.Stop()
			s.wg.Wait()
		}
	})
	return nil
}

// live returns the entry for id, evicting it when expired. Caller holds mu.
func (s *Store) live(id string) *entry {
	e, ok := s.data[id]
	if !ok {
		return nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.data, id)
		return nil
	}
	return e
}
