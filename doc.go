// Package pagesnap gives paginated listings a stable view of an ordered id set.
//
// On the first request a caller captures the ordered ids of a query in a
// Cursor. Later pages read slices of that snapshot instead of re-running the
// query, so concurrent inserts, deletes and reorders never shift rows between
// pages. When records behind snapshot ids disappear, PageFetcher drops them
// from the snapshot, lowers the total count and backfills the page from the
// ids that follow.
//
// Components:
//   - store.Store: per-cursor persistence (store/memory, store/redis, store/encoded).
//   - Pager: explicit configuration object that creates and resolves cursors.
//   - Snapshot: read-only page view over a cursor.
//   - PageFetcher[R]: drift-tolerant page assembly through a caller Resolver.
//
// Typical flow:
//
//	p, _ := pagesnap.New(pagesnap.Options{Store: st})
//	cur, _ := p.CreateCursor(ctx, ids)                   // first request
//	f := pagesnap.NewPageFetcher(p.Snapshot(cur), load, idOf)
//	res, _ := f.Fetch(ctx, 1, 25)                        // res.CursorID goes back to the client
//
//	cur, err := p.RequireCursor(ctx, idFromClient)      // next requests
//	if errors.Is(err, pagesnap.ErrCursorExpired) { ... } // start over
package pagesnap
