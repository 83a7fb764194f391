package prom

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New(reg, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h.CursorCreated("a", 10, 10)
	h.CursorCreated("b", 5, 50)
	h.CursorMissing("c")
	h.SnapshotRepaired("a", 3, 7)
	h.SnapshotRepaired("a", 2, 5)
	h.BackfillExhausted("a", 1, 0, 10)
	h.EntryCorrupt("k", "frame")
	h.EntryCorrupt("k", "frame")
	h.EntryCorrupt("k", "decode")

	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"created", h.CursorsCreated, 2},
		{"missing", h.CursorsMissing, 1},
		{"repairs", h.Repairs, 2},
		{"removed", h.RemovedIDs, 5},
		{"exhausted", h.BackfillsExhausted, 1},
		{"corrupt/frame", h.EntriesCorrupt.WithLabelValues("frame"), 2},
		{"corrupt/decode", h.EntriesCorrupt.WithLabelValues("decode"), 1},
	}
	for _, tc := range checks {
		if got := testutil.ToFloat64(tc.c); got != tc.want {
			t.Fatalf("%s = %v, want %v", tc.name, got, tc.want)
		}
	}

	n, err := testutil.GatherAndCount(reg, "pagesnap_cursor_stored_ids")
	if err != nil || n != 1 {
		t.Fatalf("stored ids histogram series = %d, %v", n, err)
	}
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg, "app"); err != nil {
		t.Fatal(err)
	}
	if _, err := New(reg, "app"); err == nil {
		t.Fatalf("second New on same registry should fail")
	}
}
