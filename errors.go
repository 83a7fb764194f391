package pagesnap

import "github.com/unkn0wn-root/pagesnap/store"

var (
	// ErrPagesnap is the root of the error taxonomy; errors.Is(err, ErrPagesnap)
	// matches every error below.
	ErrPagesnap = store.ErrPagesnap

	// ErrCursorExpired means the snapshot is gone (never created, deleted or
	// past its TTL). Start a new pagination session.
	ErrCursorExpired = store.ErrCursorExpired

	// ErrConfiguration means a required collaborator was never supplied.
	ErrConfiguration = store.ErrConfiguration
)

// CursorError carries the operation and cursor id alongside ErrCursorExpired.
//
//	var ce *pagesnap.CursorError
//	if errors.As(err, &ce) { log(ce.CursorID) }
type CursorError = store.CursorError
