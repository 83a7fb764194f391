package prom

import "github.com/prometheus/client_golang/prometheus"

// CacheStats is the counter set of an in-process provider, as exposed by
// provider/ristretto's Metrics. ristretto's *Metrics satisfies it and reports
// zeros when metrics were not enabled.
type CacheStats interface {
	Hits() uint64
	Misses() uint64
	KeysAdded() uint64
	KeysEvicted() uint64
	SetsRejected() uint64
	CostAdded() uint64
	CostEvicted() uint64
}

type providerCollector struct {
	stats CacheStats
	descs []*prometheus.Desc
	reads []func(CacheStats) uint64
}

// RegisterProvider exports stats as counters named
// <namespace>_provider_<name>_total ("" => "pagesnap"). Values are read on
// every scrape.
func RegisterProvider(reg prometheus.Registerer, namespace string, stats CacheStats) error {
	if namespace == "" {
		namespace = "pagesnap"
	}
	c := &providerCollector{stats: stats}
	for _, m := range []struct {
		name, help string
		read       func(CacheStats) uint64
	}{
		{"hits", "Provider lookups that found an entry.", CacheStats.Hits},
		{"misses", "Provider lookups that found nothing.", CacheStats.Misses},
		{"keys_added", "Entries admitted by the provider.", CacheStats.KeysAdded},
		{"keys_evicted", "Entries evicted under memory pressure.", CacheStats.KeysEvicted},
		{"sets_rejected", "Writes refused by the admission policy.", CacheStats.SetsRejected},
		{"cost_added", "Bytes admitted by the provider.", CacheStats.CostAdded},
		{"cost_evicted", "Bytes evicted under memory pressure.", CacheStats.CostEvicted},
	} {
		name := prometheus.BuildFQName(namespace, "provider", m.name+"_total")
		c.descs = append(c.descs, prometheus.NewDesc(name, m.help, nil, nil))
		c.reads = append(c.reads, m.read)
	}
	return reg.Register(c)
}

func (c *providerCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
}

func (c *providerCollector) Collect(ch chan<- prometheus.Metric) {
	for i, d := range c.descs {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(c.reads[i](c.stats)))
	}
}
