/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deployDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "apexctl_cluster_deploy_duration_seconds",
			Help:    "Time taken to apply the full agent resource set",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60},
		},
	)

	deployTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apexctl_cluster_deploy_total",
			Help: "Total number of agent deploy attempts",
		},
		[]string{"status"}, // success or error
	)
)
