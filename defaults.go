package pagesnap

import (
	"sync/atomic"

	"github.com/unkn0wn-root/pagesnap/store"
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

var defaultPager atomic.Pointer[Pager]

// SetDefault installs p as the process-wide Pager. Meant for composition
// roots (main, test setup); libraries should accept a *Pager instead.
// Passing nil clears it.
func SetDefault(p *Pager) { defaultPager.Store(p) }

// Default returns the Pager installed by SetDefault, or ErrConfiguration
// when none was installed.
func Default() (*Pager, error) {
	p := defaultPager.Load()
	if p == nil {
		return nil, store.Misconfigured("pagesnap: no default pager configured")
	}
	return p, nil
}
