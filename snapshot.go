package pagesnap

import "context"

// Snapshot is a read-only page view over a cursor.
type Snapshot struct {
	c *Cursor
}

func NewSnapshot(c *Cursor) *Snapshot { return &Snapshot{c: c} }

// Snapshot is shorthand for NewSnapshot(c).
func (p *Pager) Snapshot(c *Cursor) *Snapshot { return NewSnapshot(c) }

func (s *Snapshot) CursorID() string { return s.c.id }

// PageIDs returns the ids of a 1-based page. Pages below 1 read page 1.
func (s *Snapshot) PageIDs(ctx context.Context, page, perPage int) ([]string, error) {
	if page < 1 {
		page = 1
	}
	return s.PageIDsAt(ctx, (page-1)*perPage, perPage)
}

// PageIDsAt returns up to limit ids starting at offset.
func (s *Snapshot) PageIDsAt(ctx context.Context, offset, limit int) ([]string, error) {
	return s.c.p.store.FetchPage(ctx, s.c.id, offset, limit)
}

func (s *Snapshot) TotalCount(ctx context.Context) (int64, error) {
	return s.c.p.store.TotalCount(ctx, s.c.id)
}

// TotalPages is ceil(total/perPage); 0 when perPage <= 0.
func (s *Snapshot) TotalPages(ctx context.Context, perPage int) (int, error) {
	total, err := s.TotalCount(ctx)
	if err != nil {
		return 0, err
	}
	return totalPages(total, perPage), nil
}

func (s *Snapshot) HasNext(ctx context.Context, page, perPage int) (bool, error) {
	n, err := s.TotalPages(ctx, perPage)
	if err != nil {
		return false, err
	}
	return page < n, nil
}

func (s *Snapshot) HasPrev(page int) bool { return page > 1 }

func totalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	pp := int64(perPage)
	return int((total + pp - 1) / pp)
}
