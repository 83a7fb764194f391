// Package prom counts pagesnap events with Prometheus metrics.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/pagesnap"
)

// Hooks implements pagesnap.Hooks by incrementing counters. Labels never
// carry cursor ids.
type Hooks struct {
	CursorsCreated     prometheus.Counter
	StoredIDs          prometheus.Histogram
	CursorsMissing     prometheus.Counter
	Repairs            prometheus.Counter
	RemovedIDs         prometheus.Counter
	BackfillsExhausted prometheus.Counter
	EntriesCorrupt     *prometheus.CounterVec
}

var _ pagesnap.Hooks = (*Hooks)(nil)

// New registers the pagesnap meters on reg. namespace prefixes every metric
// name ("" => "pagesnap").
func New(reg prometheus.Registerer, namespace string) (*Hooks, error) {
	if namespace == "" {
		namespace = "pagesnap"
	}
	h := &Hooks{
		CursorsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cursors_created_total",
			Help:      "Total number of snapshots created.",
		}),
		StoredIDs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cursor_stored_ids",
			Help:      "Number of ids kept per created snapshot.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
		CursorsMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cursors_missing_total",
			Help:      "Total number of lookups for absent or expired cursors.",
		}),
		Repairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_repairs_total",
			Help:      "Total number of repair rounds during page assembly.",
		}),
		RemovedIDs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_removed_ids_total",
			Help:      "Total number of ids dropped from snapshots by repair.",
		}),
		BackfillsExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfill_exhausted_total",
			Help:      "Total number of pages returned short after the attempt ceiling.",
		}),
		EntriesCorrupt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_corrupt_total",
			Help:      "Total number of stored entries dropped as corrupt.",
		}, []string{"reason"}),
	}
	for _, c := range []prometheus.Collector{
		h.CursorsCreated, h.StoredIDs, h.CursorsMissing, h.Repairs,
		h.RemovedIDs, h.BackfillsExhausted, h.EntriesCorrupt,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) CursorCreated(_ string, stored int, _ int64) {
	h.CursorsCreated.Inc()
	h.StoredIDs.Observe(float64(stored))
}

func (h *Hooks) CursorMissing(string) { h.CursorsMissing.Inc() }

func (h *Hooks) SnapshotRepaired(_ string, removed int, _ int64) {
	h.Repairs.Inc()
	h.RemovedIDs.Add(float64(removed))
}

func (h *Hooks) BackfillExhausted(string, int, int, int) { h.BackfillsExhausted.Inc() }

func (h *Hooks) EntryCorrupt(_, reason string) { h.EntriesCorrupt.WithLabelValues(reason).Inc() }
