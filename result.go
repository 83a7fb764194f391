package pagesnap

// Result is one assembled page.
type Result[R any] struct {
	Records    []R
	TotalCount int64 // after any repair done while assembling this page
	CursorID   string
	Page       int
	PerPage    int
}

func (r *Result[R]) TotalPages() int { return totalPages(r.TotalCount, r.PerPage) }
func (r *Result[R]) HasNext() bool   { return r.Page < r.TotalPages() }
func (r *Result[R]) HasPrev() bool   { return r.Page > 1 }
func (r *Result[R]) IsFirst() bool   { return r.Page == 1 }
func (r *Result[R]) IsLast() bool    { return r.Page >= r.TotalPages() }
func (r *Result[R]) Offset() int     { return (r.Page - 1) * r.PerPage }
