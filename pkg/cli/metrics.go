/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// metricPrefix selects this tool's own instrumentation, excluding the
// default registry's go_* and process_* collectors.
const metricPrefix = "apexctl_"

// gatherMetrics sums the samples of every apexctl metric in the default
// registry: counter values, and observation counts for histograms.
func gatherMetrics() map[string]float64 {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		slog.Debug("failed to gather metrics", "error", err)
		return nil
	}

	out := make(map[string]float64)
	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), metricPrefix) {
			continue
		}
		var total float64
		for _, metric := range family.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				total += c.GetValue()
			}
			if h := metric.GetHistogram(); h != nil {
				total += float64(h.GetSampleCount())
			}
		}
		if total > 0 {
			out[family.GetName()] = total
		}
	}
	return out
}

// logMetrics emits the operation metrics collected during this invocation.
// The process is one-shot, so a debug-level summary at exit is the outlet
// for the instrumentation.
func logMetrics() {
	for name, value := range gatherMetrics() {
		slog.Debug("operation metric", "name", name, "value", value)
	}
}
