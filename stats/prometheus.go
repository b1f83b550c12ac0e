// File: stats/prometheus.go
// Collector adapts a Registry to prometheus.Collector, exporting every
// known node/series' Welford moments as gauges on each scrape rather
// than keeping a duplicate set of prometheus.Gauge objects in sync
// with the Registry's own bookkeeping.
// Grounded on the domain-stack wiring for github.com/prometheus/
// client_golang named in SPEC_FULL.md's DOMAIN STACK section.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements prometheus.Collector over a Registry.
type Collector struct {
	reg  *Registry
	desc *prometheus.Desc
}

// NewCollector wraps reg for registration with a prometheus.Registerer.
func NewCollector(reg *Registry) *Collector {
	return &Collector{
		reg: reg,
		desc: prometheus.NewDesc(
			"villas_node_sample_stat",
			"Running sample statistic, labeled by node, series and moment.",
			[]string{"node", "series", "moment"},
			nil,
		),
	}
}

// Describe sends the single metric family descriptor this Collector emits.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect snapshots every tracked series and emits one gauge per moment.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, id := range c.reg.Series() {
		snap, ok := c.reg.Snapshot(id)
		if !ok {
			continue
		}
		node, series := splitSeries(id)
		moments := map[string]float64{
			"total":    float64(snap.Total),
			"last":     snap.Last,
			"lowest":   snap.Lowest,
			"highest":  snap.Highest,
			"mean":     snap.Mean,
			"variance": snap.Variance,
			"stddev":   snap.Stddev,
		}
		for moment, value := range moments {
			ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, value, node, series, moment)
		}
	}
}
