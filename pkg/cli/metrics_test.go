/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
)

func TestGatherMetrics(t *testing.T) {
	counter := promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apexctl_test_operations_total",
			Help: "test counter",
		},
		[]string{"status"},
	)
	t.Cleanup(func() { prometheus.Unregister(counter) })

	// zero-valued metrics are omitted from the summary
	gathered := gatherMetrics()
	assert.NotContains(t, gathered, "apexctl_test_operations_total")

	counter.WithLabelValues("success").Inc()
	counter.WithLabelValues("error").Add(2)

	gathered = gatherMetrics()
	assert.Equal(t, float64(3), gathered["apexctl_test_operations_total"])
}
