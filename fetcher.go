package pagesnap

import (
	"context"
	"fmt"
	"slices"
)

const (
	maxBackfillAttempts = 20
	maxFetchSize        = 1000
)

// Resolver loads the records for ids. Records may come back in any order and
// ids without a record are simply left out.
type Resolver[R any] func(ctx context.Context, ids []string) ([]R, error)

// PageFetcher assembles pages from a Snapshot, repairing the snapshot when
// ids no longer resolve and backfilling the page from the ids that follow.
type PageFetcher[R any] struct {
	snap    *Snapshot
	resolve Resolver[R]
	idOf    func(R) string
}

// NewPageFetcher wires a snapshot to a record source. idOf returns the
// snapshot id of a resolved record.
func NewPageFetcher[R any](snap *Snapshot, resolve Resolver[R], idOf func(R) string) *PageFetcher[R] {
	return &PageFetcher[R]{snap: snap, resolve: resolve, idOf: idOf}
}

// Fetch returns page (1-based; values below 1 read page 1) with up to perPage
// records in snapshot order. The page is short only when the snapshot runs out
// or the attempt ceiling is hit.
//
// ErrCursorExpired is returned unchanged; resolver errors are wrapped.
func (f *PageFetcher[R]) Fetch(ctx context.Context, page, perPage int) (*Result[R], error) {
	if page < 1 {
		page = 1
	}
	p, cursorID := f.snap.c.p, f.snap.c.id

	offset := (page - 1) * perPage
	remaining := perPage
	fetchSize := perPage
	records := make([]R, 0, max(perPage, 0))

	attempts := 0
	for ; attempts < maxBackfillAttempts && remaining > 0; attempts++ {
		ids, err := f.snap.PageIDsAt(ctx, offset, fetchSize)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			break
		}

		found, err := f.resolve(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("pagesnap: resolve ids: %w", err)
		}
		found, deleted := f.reconcile(ids, found)
		records = append(records, found...)

		if len(deleted) > 0 {
			if err := f.repair(ctx, deleted); err != nil {
				return nil, err
			}
			fetchSize = min(fetchSize*2, maxFetchSize)
		} else {
			fetchSize = remaining - len(found)
		}

		remaining -= len(found)
		// offset follows the list as it was read, before this round's repair
		offset += len(ids)
	}

	if remaining > 0 && attempts == maxBackfillAttempts {
		got := min(len(records), perPage)
		p.hooks.BackfillExhausted(cursorID, page, got, perPage)
		p.log.Warn("backfill attempts exhausted", Fields{
			"cursor_id": cursorID, "page": page, "got": got, "want": perPage,
		})
	}
	if len(records) > perPage {
		records = records[:max(perPage, 0)]
	}

	total, err := f.snap.TotalCount(ctx)
	if err != nil {
		return nil, err
	}
	return &Result[R]{
		Records:    records,
		TotalCount: total,
		CursorID:   cursorID,
		Page:       page,
		PerPage:    perPage,
	}, nil
}

// reconcile orders found by position in ids (records with unknown ids go
// last) and returns the ids that did not resolve, deduplicated.
func (f *PageFetcher[R]) reconcile(ids []string, found []R) ([]R, []string) {
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := pos[id]; !dup {
			pos[id] = i
		}
	}
	rank := func(r R) int {
		if i, ok := pos[f.idOf(r)]; ok {
			return i
		}
		return len(ids)
	}

	ordered := slices.Clone(found)
	slices.SortStableFunc(ordered, func(a, b R) int { return rank(a) - rank(b) })

	resolved := make(map[string]struct{}, len(found))
	for _, r := range found {
		resolved[f.idOf(r)] = struct{}{}
	}
	var deleted []string
	for _, id := range ids {
		if _, ok := resolved[id]; ok {
			continue
		}
		resolved[id] = struct{}{} // dedupe
		deleted = append(deleted, id)
	}
	return ordered, deleted
}

func (f *PageFetcher[R]) repair(ctx context.Context, deleted []string) error {
	p, cursorID := f.snap.c.p, f.snap.c.id
	removed, err := p.store.RemoveIDs(ctx, cursorID, deleted)
	if err != nil {
		return err
	}
	newTotal, err := p.store.DecrementTotalCount(ctx, cursorID, int64(len(deleted)))
	if err != nil {
		return err
	}
	p.hooks.SnapshotRepaired(cursorID, len(deleted), newTotal)
	p.log.Info("snapshot repaired", Fields{
		"cursor_id": cursorID, "deleted": len(deleted), "removed": removed, "new_total": newTotal,
	})
	return nil
}
