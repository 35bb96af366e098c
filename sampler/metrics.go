// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sampler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the sampler's Prometheus instruments. All metrics use
// the "kernelsearch_sampler_" prefix. A nil *Metrics is valid and
// records nothing, so metrics stay optional for library callers.
//
// Thread Safety: Safe for concurrent use; shared across chains.
type Metrics struct {
	movesTotal *prometheus.CounterVec
	treeSize   prometheus.Histogram
	logProb    prometheus.Gauge
}

// NewMetrics registers the sampler metrics on the given registerer.
//
// Inputs:
//   - reg: Target registry; prometheus.DefaultRegisterer for the usual case.
//
// Outputs:
//   - *Metrics: Registered instruments.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		movesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kernelsearch",
			Subsystem: "sampler",
			Name:      "moves_total",
			Help:      "MH moves by kind (structural, noise) and outcome (accepted, rejected).",
		}, []string{"kind", "outcome"}),
		treeSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kernelsearch",
			Subsystem: "sampler",
			Name:      "tree_size_nodes",
			Help:      "Node count of the current covariance tree, observed per iteration.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		logProb: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "kernelsearch",
			Subsystem: "sampler",
			Name:      "trace_log_prob",
			Help:      "Joint log-probability of the current trace.",
		}),
	}
}

func (m *Metrics) recordMove(kind string, accepted bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.movesTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) recordState(treeSize int, logProb float64) {
	if m == nil {
		return
	}
	m.treeSize.Observe(float64(treeSize))
	m.logProb.Set(logProb)
}
