// Package sloghooks logs pagesnap events through log/slog.
package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/pagesnap"
	"github.com/unkn0wn-root/pagesnap/internal/keys"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	CreatedEvery  uint64
	MissingEvery  uint64
	RepairedEvery uint64
	// Optional cursor id / key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	createdCtr  atomic.Uint64
	missingCtr  atomic.Uint64
	repairedCtr atomic.Uint64
}

var _ pagesnap.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return keys.Redact(k)
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) CursorCreated(cursorID string, stored int, total int64) {
	if h.l == nil || !sample(h.opts.CreatedEvery, &h.createdCtr) {
		return
	}
	h.l.Debug("pagesnap.cursor_created",
		"cursor", h.redact(cursorID),
		"stored", stored,
		"total", total)
}

func (h *Hooks) CursorMissing(cursorID string) {
	if h.l == nil || !sample(h.opts.MissingEvery, &h.missingCtr) {
		return
	}
	h.l.Info("pagesnap.cursor_missing",
		"cursor", h.redact(cursorID))
}

func (h *Hooks) SnapshotRepaired(cursorID string, removed int, newTotal int64) {
	if h.l == nil || !sample(h.opts.RepairedEvery, &h.repairedCtr) {
		return
	}
	h.l.Info("pagesnap.snapshot_repaired",
		"cursor", h.redact(cursorID),
		"removed", removed,
		"new_total", newTotal)
}

func (h *Hooks) BackfillExhausted(cursorID string, page, got, want int) {
	if h.l == nil {
		return
	}
	h.l.Warn("pagesnap.backfill_exhausted",
		"cursor", h.redact(cursorID),
		"page", page,
		"got", got,
		"want", want)
}

func (h *Hooks) EntryCorrupt(key, reason string) {
	if h.l == nil {
		return
	}
	h.l.Warn("pagesnap.entry_corrupt",
		"key", h.redact(key),
		"reason", reason)
}
