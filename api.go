package pagesnap

import (
	"context"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/unkn0wn-root/pagesnap/store"
)

// CursorIDSize is the length of generated cursor ids. With the 64-symbol
// URL-safe alphabet that is 132 bits of entropy.
const CursorIDSize = 22

// IDFunc generates a new cursor id.
type IDFunc func() (string, error)

// Options configure a Pager. Only Store is required.
type Options struct {
	Store store.Store // required

	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
	NewID  IDFunc // nil => 22 char nanoid
}

// Pager creates, resolves and pages cursors on one Store.
// It is safe for concurrent use.
type Pager struct {
	store store.Store
	log   Logger
	hooks Hooks
	newID IDFunc
}

func New(opts Options) (*Pager, error) {
	if opts.Store == nil {
		return nil, store.Misconfigured("pagesnap: store is required")
	}
	p := &Pager{store: opts.Store}

	// defaults
	p.log = coalesce[Logger](opts.Logger, NopLogger{})
	p.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	if opts.NewID != nil {
		p.newID = opts.NewID
	} else {
		p.newID = func() (string, error) { return gonanoid.New(CursorIDSize) }
	}
	return p, nil
}

// Store returns the backing store.
func (p *Pager) Store() store.Store { return p.store }

// Close closes the backing store.
func (p *Pager) Close(ctx context.Context) error {
	return p.store.Close(ctx)
}
