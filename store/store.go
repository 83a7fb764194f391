// Package store defines the persistence abstraction behind pagesnap cursors.
//
// A Store keeps, per cursor id, an ordered list of record identifiers plus two
// counters (total_count and stored_count) under a single TTL window.
// Implementations MUST be safe for concurrent use across cursor ids and MUST
// report a missing or expired cursor as ErrCursorExpired on reads.
//
// Implementations in this module:
//   - store/memory:  in-process map, lazy expiry (tests, single node).
//   - store/redis:   sorted set + metadata hash, shared across processes.
//   - store/encoded: one framed blob per cursor over any provider.Provider.
package store

import (
	"context"
	"time"
)

const (
	DefaultTTL    = 30 * time.Minute
	DefaultMaxIDs = 100_000
)

// Store persists and serves slices of cursor snapshots.
type Store interface {
	// Store replaces any prior entry for cursorID. ids are truncated to MaxIDs
	// before persisting; totalCount is stored as given. Resets the TTL.
	Store(ctx context.Context, cursorID string, ids []string, totalCount int64) error

	// FetchPage returns ids in [offset, offset+limit), clipped to the stored length.
	FetchPage(ctx context.Context, cursorID string, offset, limit int) ([]string, error)

	TotalCount(ctx context.Context, cursorID string) (int64, error)

	// StoredCount is the length of the stored id list (introspection).
	StoredCount(ctx context.Context, cursorID string) (int, error)

	// Exists reports false for missing and expired cursors. Only I/O fails.
	Exists(ctx context.Context, cursorID string) (bool, error)

	// Delete removes all state for cursorID; ok reports whether anything was removed.
	Delete(ctx context.Context, cursorID string) (ok bool, err error)

	// Touch resets the TTL without altering content; false when cursorID is absent.
	Touch(ctx context.Context, cursorID string) (ok bool, err error)

	// RemoveIDs drops ids from the stored list, preserving the order of the rest.
	// Returns 0 when the cursor is absent.
	RemoveIDs(ctx context.Context, cursorID string, ids []string) (int, error)

	// DecrementTotalCount atomically subtracts by from total_count and returns
	// the new value. Returns 0 when the cursor is absent.
	DecrementTotalCount(ctx context.Context, cursorID string, by int64) (int64, error)

	Close(ctx context.Context) error
}

// Limits bounds what a Store keeps per cursor. Zero values take defaults.
type Limits struct {
	TTL    time.Duration // 0 => 30m
	MaxIDs int           // 0 => 100000
}

// WithDefaults fills zero fields.
func (l Limits) WithDefaults() Limits {
	if l.TTL <= 0 {
		l.TTL = DefaultTTL
	}
	if l.MaxIDs <= 0 {
		l.MaxIDs = DefaultMaxIDs
	}
	return l
}

// Entry is the logical snapshot record kept per cursor.
type Entry struct {
	IDs         []string `json:"ids" msgpack:"ids" cbor:"1,keyasint"`
	TotalCount  int64    `json:"total_count" msgpack:"total_count" cbor:"2,keyasint"`
	StoredCount int      `json:"stored_count" msgpack:"stored_count" cbor:"3,keyasint"`
}

// Prepare truncates ids to max and drops repeated ids, keeping the first
// occurrence. The input slice is not modified.
func Prepare(ids []string, max int) []string {
	if max > 0 && len(ids) > max {
		ids = ids[:max]
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Window returns s[offset:offset+limit] clipped to len(s). The result is a copy.
func Window(s []string, offset, limit int) []string {
	if offset < 0 || limit <= 0 || offset >= len(s) {
		return []string{}
	}
	end := offset + limit
	if end > len(s) || end < offset {
		end = len(s)
	}
	out := make([]string, end-offset)
	copy(out, s[offset:end])
	return out
}

// Without returns s minus every element of drop, order preserved, and the
// number of elements removed.
func Without(s []string, drop []string) ([]string, int) {
	if len(drop) == 0 || len(s) == 0 {
		return s, 0
	}
	set := make(map[string]struct{}, len(drop))
	for _, id := range drop {
		set[id] = struct{}{}
	}
	out := make([]string, 0, len(s))
	for _, id := range s {
		if _, ok := set[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out, len(s) - len(out)
}
