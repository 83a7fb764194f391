package prom

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/unkn0wn-root/pagesnap/provider/ristretto"
)

type fixedStats struct{ hits, misses, added, evicted, rejected, costAdded, costEvicted uint64 }

func (s fixedStats) Hits() uint64         { return s.hits }
func (s fixedStats) Misses() uint64       { return s.misses }
func (s fixedStats) KeysAdded() uint64    { return s.added }
func (s fixedStats) KeysEvicted() uint64  { return s.evicted }
func (s fixedStats) SetsRejected() uint64 { return s.rejected }
func (s fixedStats) CostAdded() uint64    { return s.costAdded }
func (s fixedStats) CostEvicted() uint64  { return s.costEvicted }

func TestRegisterProviderExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := RegisterProvider(reg, "app", fixedStats{hits: 7, misses: 2, rejected: 1}); err != nil {
		t.Fatalf("RegisterProvider: %v", err)
	}

	want := `
# HELP app_provider_hits_total Provider lookups that found an entry.
# TYPE app_provider_hits_total counter
app_provider_hits_total 7
# HELP app_provider_misses_total Provider lookups that found nothing.
# TYPE app_provider_misses_total counter
app_provider_misses_total 2
# HELP app_provider_sets_rejected_total Writes refused by the admission policy.
# TYPE app_provider_sets_rejected_total counter
app_provider_sets_rejected_total 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(want),
		"app_provider_hits_total", "app_provider_misses_total", "app_provider_sets_rejected_total")
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := testutil.GatherAndCount(reg); n != 7 {
		t.Fatalf("exported %d series, want 7", n)
	}
}

func TestRegisterProviderReadsRistretto(t *testing.T) {
	ctx := context.Background()
	p, err := ristretto.New(ristretto.Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64, Metrics: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close(ctx) })

	reg := prometheus.NewRegistry()
	if err := RegisterProvider(reg, "", p.Metrics()); err != nil {
		t.Fatalf("RegisterProvider: %v", err)
	}

	if ok, _ := p.Set(ctx, "k", []byte("v"), 1, time.Minute); !ok {
		t.Fatal("Set rejected")
	}
	_, _, _ = p.Get(ctx, "k")
	_, _, _ = p.Get(ctx, "absent")

	want := `
# HELP pagesnap_provider_hits_total Provider lookups that found an entry.
# TYPE pagesnap_provider_hits_total counter
pagesnap_provider_hits_total 1
# HELP pagesnap_provider_misses_total Provider lookups that found nothing.
# TYPE pagesnap_provider_misses_total counter
pagesnap_provider_misses_total 1
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(want),
		"pagesnap_provider_hits_total", "pagesnap_provider_misses_total")
	if err != nil {
		t.Fatal(err)
	}
}

func TestRegisterProviderWithoutMetricsReportsZero(t *testing.T) {
	p, err := ristretto.New(ristretto.Config{NumCounters: 100, MaxCost: 1 << 10, BufferItems: 64})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })

	reg := prometheus.NewRegistry()
	if err := RegisterProvider(reg, "", p.Metrics()); err != nil {
		t.Fatalf("RegisterProvider: %v", err)
	}
	_, _, _ = p.Get(context.Background(), "k")
	if n, err := testutil.GatherAndCount(reg, "pagesnap_provider_misses_total"); err != nil || n != 1 {
		t.Fatalf("GatherAndCount = %d, %v", n, err)
	}
}
