// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import (
	"github.com/prometheus/client_golang/prometheus"
)

type engineMetrics struct {
	blocksEvaluated prometheus.Counter
	accepted        prometheus.Counter
	rejected        *prometheus.CounterVec
}

func newEngineMetrics(registerer prometheus.Registerer) *engineMetrics {
	m := engineMetrics{
		blocksEvaluated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "blocks_evaluated",
				Help: "Number of finalized blocks evaluated",
			},
		),
		accepted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "oraclizations_accepted",
				Help: "Number of oraclizations accepted",
			},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oraclizations_rejected",
				Help: "Number of oraclizations rejected, by reason",
			},
			[]string{"reason"},
		),
	}
	registerer.MustRegister(m.blocksEvaluated)
	registerer.MustRegister(m.accepted)
	registerer.MustRegister(m.rejected)

	return &m
}

func (m *engineMetrics) observe(verdict Verdict) {
	if m == nil {
		return
	}
	if verdict.Accepted() {
		m.accepted.Inc()
	} else {
		m.rejected.WithLabelValues(verdict.Reason.String()).Inc()
	}
}
