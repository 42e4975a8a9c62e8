/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package systemd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var serviceOpTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "apexctl_service_operations_total",
		Help: "Total number of agent service operations",
	},
	[]string{"operation", "status"},
)
