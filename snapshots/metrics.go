// SPDX-License-Identifier: MPL-2.0

package snapshots

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricArchiveCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hawkeye_archive_total",
			Help: "Total number of published document archives",
		},
		[]string{"status"},
	)

	metricArchiveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hawkeye_archive_duration_seconds",
			Help:    "Duration of archiving published documents in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)
