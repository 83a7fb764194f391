package store

import (
	"errors"
	"fmt"
)

var (
	// ErrPagesnap is the root of every error raised by pagesnap itself.
	ErrPagesnap = errors.New("pagesnap")

	// ErrCursorExpired means the cursor's data is absent or past its TTL.
	// Callers should start a new pagination session.
	ErrCursorExpired = fmt.Errorf("%w: cursor expired", ErrPagesnap)

	// ErrConfiguration means a required backend or option was never supplied.
	ErrConfiguration = fmt.Errorf("%w: configuration error", ErrPagesnap)
)

// CursorError carries the operation and cursor id of a failed cursor lookup.
type CursorError struct {
	Op       string
	CursorID string
	Err      error
}

func (e *CursorError) Error() string {
	return fmt.Sprintf("%s cursor %q: %v", e.Op, e.CursorID, e.Err)
}

func (e *CursorError) Unwrap() error { return e.Err }

// Expired builds the error every backend returns for a missing cursor.
func Expired(op, cursorID string) error {
	return &CursorError{Op: op, CursorID: cursorID, Err: ErrCursorExpired}
}

// Misconfigured wraps ErrConfiguration with a reason.
func Misconfigured(reason string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, reason)
}
