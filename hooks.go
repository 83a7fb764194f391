package pagesnap

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The pager calls them inline on request paths.
type Hooks interface {
	// A cursor was persisted. stored is the number of ids kept after
	// truncation and dedupe; total is the caller-supplied count.
	CursorCreated(cursorID string, stored int, total int64)

	// A lookup found no live snapshot for a non-empty cursor id.
	CursorMissing(cursorID string)

	// The fetcher removed ids whose records no longer resolve.
	SnapshotRepaired(cursorID string, removed int, newTotal int64)

	// The backfill attempt ceiling was reached with the page still short.
	BackfillExhausted(cursorID string, page, got, want int)

	// A stored entry failed validation and was deleted.
	// reason ∈ {"frame", "decode"}
	EntryCorrupt(key, reason string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CursorCreated(string, int, int64)        {}
func (NopHooks) CursorMissing(string)                    {}
func (NopHooks) SnapshotRepaired(string, int, int64)     {}
func (NopHooks) BackfillExhausted(string, int, int, int) {}
func (NopHooks) EntryCorrupt(string, string)             {}
