package pagesnap

import (
	"context"
	"fmt"
)

// Cursor is a handle on a persisted snapshot. It holds no state besides its
// id; every read goes to the Store.
type Cursor struct {
	id string
	p  *Pager
}

func (c *Cursor) ID() string     { return c.id }
func (c *Cursor) String() string { return c.id }

func (c *Cursor) Exists(ctx context.Context) (bool, error) {
	return c.p.store.Exists(ctx, c.id)
}

func (c *Cursor) TotalCount(ctx context.Context) (int64, error) {
	return c.p.store.TotalCount(ctx, c.id)
}

func (c *Cursor) StoredCount(ctx context.Context) (int, error) {
	return c.p.store.StoredCount(ctx, c.id)
}

func (c *Cursor) Delete(ctx context.Context) (bool, error) {
	return c.p.store.Delete(ctx, c.id)
}

// Touch extends the snapshot lifetime by a full TTL; false when it is gone.
func (c *Cursor) Touch(ctx context.Context) (bool, error) {
	return c.p.store.Touch(ctx, c.id)
}

type createOptions struct {
	total    int64
	hasTotal bool
}

// CreateOption tunes CreateCursor.
type CreateOption func(*createOptions)

// WithTotalCount records n as the total instead of len(ids). Use it when ids
// is a capped prefix of a larger result set.
func WithTotalCount(n int64) CreateOption {
	return func(o *createOptions) {
		o.total = n
		o.hasTotal = true
	}
}

// CreateCursor snapshots ids under a freshly generated cursor id.
// ids beyond the store's MaxIDs are dropped; the total is kept as given.
func (p *Pager) CreateCursor(ctx context.Context, ids []string, opts ...CreateOption) (*Cursor, error) {
	var o createOptions
	for _, opt := range opts {
		opt(&o)
	}
	total := int64(len(ids))
	if o.hasTotal {
		total = o.total
	}
	if total < 0 {
		return nil, fmt.Errorf("%w: negative total count %d", ErrConfiguration, total)
	}

	id, err := p.newID()
	if err != nil {
		return nil, fmt.Errorf("pagesnap: generate cursor id: %w", err)
	}
	if err := p.store.Store(ctx, id, ids, total); err != nil {
		return nil, err
	}

	c := &Cursor{id: id, p: p}
	stored, err := c.StoredCount(ctx)
	if err != nil {
		return nil, err
	}
	p.hooks.CursorCreated(id, stored, total)
	p.log.Debug("cursor created", Fields{"cursor_id": id, "ids_count": len(ids), "stored": stored, "total_count": total})
	return c, nil
}

// FindCursor returns the cursor for id, or nil without error when id is empty
// or its snapshot is absent or expired.
func (p *Pager) FindCursor(ctx context.Context, id string) (*Cursor, error) {
	if id == "" {
		return nil, nil
	}
	ok, err := p.store.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		p.hooks.CursorMissing(id)
		p.log.Debug("cursor missing", Fields{"cursor_id": id})
		return nil, nil
	}
	return &Cursor{id: id, p: p}, nil
}

// RequireCursor is FindCursor that fails with ErrCursorExpired (wrapped in a
// *CursorError) instead of returning nil.
func (p *Pager) RequireCursor(ctx context.Context, id string) (*Cursor, error) {
	c, err := p.FindCursor(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &CursorError{Op: "require", CursorID: id, Err: ErrCursorExpired}
	}
	return c, nil
}

// LoadFunc produces the ordered ids for a new snapshot and the total row
// count of the underlying query.
type LoadFunc func(ctx context.Context) (ids []string, total int64, err error)

// FindOrCreate resumes the cursor for id when it is still live and otherwise
// snapshots the ids returned by load. created reports which path was taken.
func (p *Pager) FindOrCreate(ctx context.Context, id string, load LoadFunc) (c *Cursor, created bool, err error) {
	c, err = p.FindCursor(ctx, id)
	if err != nil || c != nil {
		return c, false, err
	}
	ids, total, err := load(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("pagesnap: load ids: %w", err)
	}
	c, err = p.CreateCursor(ctx, ids, WithTotalCount(total))
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}
