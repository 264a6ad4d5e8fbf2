// SPDX-License-Identifier: MIT

package render

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	burnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lyricburn_burns_total",
		Help: "Total number of burn invocations by result",
	}, []string{"result"})

	burnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lyricburn_burn_duration_seconds",
		Help:    "Wall-clock duration of burn invocations",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	burnsInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lyricburn_burns_inflight",
		Help: "Number of burns currently holding an admission slot",
	})
)
