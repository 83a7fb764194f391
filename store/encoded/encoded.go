// Package encoded implements store.Store on top of any byte provider.
//
// Each cursor is one blob at "<prefix>:{<cursor>}:entry":
//
//	wire.EncodeEntry(expiresAt, codec.Encode(store.Entry))
//
// The deadline lives in the frame, so providers without per-entry TTL
// (bigcache) still expire cursors on time. Frames that fail validation or
// decoding are deleted on read and the cursor is reported as expired.
//
// Read-modify-write operations are serialized per process only. Sharing one
// remote provider between processes makes concurrent repairs last-writer-wins;
// use store/redis when several replicas paginate the same cursors.
package encoded

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/unkn0wn-root/pagesnap/codec"
	"github.com/unkn0wn-root/pagesnap/internal/keys"
	"github.com/unkn0wn-root/pagesnap/internal/wire"
	pr "github.com/unkn0wn-root/pagesnap/provider"
	"github.com/unkn0wn-root/pagesnap/store"
)

// ErrRejected is returned when the provider refused a write under pressure.
var ErrRejected = errors.New("encoded store: provider rejected write")

type Config struct {
	Provider pr.Provider      // required
	Codec    codec.EntryCodec // nil => codec.Msgpack
	Prefix   string           // "" => "pagesnap"
	store.Limits
	Logger store.Logger

	// OnCorrupt is called when a stored frame is dropped.
	// reason ∈ {"frame", "decode"}
	OnCorrupt func(key, reason string)

	Now func() time.Time // test clock; defaults to time.Now
}

type Store struct {
	p         pr.Provider
	codec     codec.EntryCodec
	prefix    string
	limits    store.Limits
	log       store.Logger
	onCorrupt func(key, reason string)
	now       func() time.Time

	mu sync.Mutex // serializes read-modify-write
}

var _ store.Store = (*Store)(nil)

func New(cfg Config) (*Store, error) {
	if cfg.Provider == nil {
		return nil, store.Misconfigured("encoded store: provider is required")
	}
	s := &Store{
		p:         cfg.Provider,
		codec:     cfg.Codec,
		prefix:    cfg.Prefix,
		limits:    cfg.Limits.WithDefaults(),
		log:       store.OrNop(cfg.Logger),
		onCorrupt: cfg.OnCorrupt,
		now:       cfg.Now,
	}
	if s.codec == nil {
		s.codec = codec.Msgpack[store.Entry]{}
	}
	if s.prefix == "" {
		s.prefix = keys.DefaultPrefix
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *Store) Limits() store.Limits { return s.limits }

func (s *Store) Store(ctx context.Context, cursorID string, ids []string, totalCount int64) error {
	stored := store.Prepare(ids, s.limits.MaxIDs)
	e := store.Entry{IDs: stored, TotalCount: totalCount, StoredCount: len(stored)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(ctx, cursorID, e, s.now().Add(s.limits.TTL)); err != nil {
		return err
	}
	s.log.Debug("encoded store", store.Fields{
		"cursor_id": cursorID, "ids_count": len(stored), "total_count": totalCount, "ttl": s.limits.TTL,
	})
	return nil
}

func (s *Store) FetchPage(ctx context.Context, cursorID string, offset, limit int) ([]string, error) {
	e, _, ok, err := s.load(ctx, cursorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, store.Expired("fetch page", cursorID)
	}
	return store.Window(e.IDs, offset, limit), nil
}

func (s *Store) TotalCount(ctx context.Context, cursorID string) (int64, error) {
	e, _, ok, err := s.load(ctx, cursorID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, store.Expired("total count", cursorID)
	}
	return e.TotalCount, nil
}

func (s *Store) StoredCount(ctx context.Context, cursorID string) (int, error) {
	e, _, ok, err := s.load(ctx, cursorID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, store.Expired("stored count", cursorID)
	}
	return e.StoredCount, nil
}

func (s *Store) Exists(ctx context.Context, cursorID string) (bool, error) {
	_, _, ok, err := s.load(ctx, cursorID)
	return ok, err
}

func (s *Store) Delete(ctx context.Context, cursorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _, ok, err := s.load(ctx, cursorID)
	if err != nil {
		return false, err
	}
	if err := s.p.Del(ctx, s.key(cursorID)); err != nil {
		return false, fmt.Errorf("encoded delete: %w", err)
	}
	return ok, nil
}

func (s *Store) Touch(ctx context.Context, cursorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _, ok, err := s.load(ctx, cursorID)
	if err != nil || !ok {
		return false, err
	}
	if err := s.save(ctx, cursorID, e, s.now().Add(s.limits.TTL)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) RemoveIDs(ctx context.Context, cursorID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, exp, ok, err := s.load(ctx, cursorID)
	if err != nil || !ok {
		return 0, err
	}
	var removed int
	e.IDs, removed = store.Without(e.IDs, ids)
	if removed == 0 {
		return 0, nil
	}
	e.StoredCount = len(e.IDs)
	if err := s.save(ctx, cursorID, e, exp); err != nil {
		return 0, err
	}
	s.log.Debug("encoded remove ids", store.Fields{"cursor_id": cursorID, "requested": len(ids), "removed": removed})
	return removed, nil
}

func (s *Store) DecrementTotalCount(ctx context.Context, cursorID string, by int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, exp, ok, err := s.load(ctx, cursorID)
	if err != nil || !ok {
		return 0, err
	}
	e.TotalCount -= by
	if err := s.save(ctx, cursorID, e, exp); err != nil {
		return 0, err
	}
	s.log.Debug("encoded decrement total", store.Fields{"cursor_id": cursorID, "by": by, "new_total": e.TotalCount})
	return e.TotalCount, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.p.Close(ctx)
}

func (s *Store) key(cursorID string) string { return keys.Entry(s.prefix, cursorID) }

// load returns ok=false for missing, expired and corrupt entries; the latter
// two are deleted from the provider (best effort).
func (s *Store) load(ctx context.Context, cursorID string) (store.Entry, time.Time, bool, error) {
	k := s.key(cursorID)
	raw, ok, err := s.p.Get(ctx, k)
	if err != nil {
		return store.Entry{}, time.Time{}, false, fmt.Errorf("encoded get: %w", err)
	}
	if !ok {
		return store.Entry{}, time.Time{}, false, nil
	}

	exp, payload, err := wire.DecodeEntry(raw)
	if err != nil {
		s.drop(ctx, k, "frame")
		return store.Entry{}, time.Time{}, false, nil
	}
	if !s.now().Before(exp) {
		_ = s.p.Del(ctx, k)
		return store.Entry{}, time.Time{}, false, nil
	}
	e, err := s.codec.Decode(payload)
	if err != nil {
		s.drop(ctx, k, "decode")
		return store.Entry{}, time.Time{}, false, nil
	}
	return e, exp, true, nil
}

func (s *Store) save(ctx context.Context, cursorID string, e store.Entry, exp time.Time) error {
	ttl := exp.Sub(s.now())
	if ttl <= 0 {
		return store.Expired("save", cursorID)
	}
	payload, err := s.codec.Encode(e)
	if err != nil {
		return fmt.Errorf("encoded encode: %w", err)
	}
	frame := wire.EncodeEntry(exp, payload)
	ok, err := s.p.Set(ctx, s.key(cursorID), frame, int64(len(frame)), ttl)
	if err != nil {
		return fmt.Errorf("encoded set: %w", err)
	}
	if !ok {
		s.log.Warn("encoded write rejected by provider", store.Fields{"cursor_id": cursorID, "bytes": len(frame)})
		return ErrRejected
	}
	return nil
}

func (s *Store) drop(ctx context.Context, key, reason string) {
	_ = s.p.Del(ctx, key)
	s.log.Warn("encoded entry dropped", store.Fields{"key": key, "reason": reason})
	if s.onCorrupt != nil {
		s.onCorrupt(key, reason)
	}
}
