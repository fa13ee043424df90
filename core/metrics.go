// SPDX-License-Identifier: MPL-2.0

package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricPublishCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hawkeye_publish_total",
			Help: "Total number of chart publishes by result",
		},
		[]string{"result"},
	)

	metricPublishAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hawkeye_publish_attempts_total",
			Help: "Total number of attempts made per publish stage",
		},
		[]string{"stage"},
	)

	metricPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hawkeye_publish_duration_seconds",
			Help:    "Duration of chart publishes in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	metricChartIDCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hawkeye_chart_id_collisions_total",
			Help: "Total number of chart ids renamed after the analytics service reported them taken",
		},
	)
)
