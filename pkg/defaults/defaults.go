/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package defaults centralizes the fixed paths, resource names, and timeout
// values used across the apexctl command groups. Keeping them in one place
// makes the install/uninstall pairs symmetric by construction.
package defaults

import "time"

// Host installation paths for the agent service.
const (
	// BinaryPath is where the agent binary is installed on the host.
	BinaryPath = "/usr/local/bin/apexdata-agent"

	// ConfigDir is the directory holding the persisted agent settings.
	ConfigDir = "/etc/apexdata-agent"

	// ConfigPath is the KEY=VALUE settings file read on every invocation.
	ConfigPath = "/etc/apexdata-agent/config"

	// UnitPath is where the rendered systemd unit file is written.
	UnitPath = "/etc/systemd/system/apexdata-agent.service"

	// UnitName is the systemd unit name used for start/stop/status/logs.
	UnitName = "apexdata-agent.service"
)

// Kubernetes resource names for the cluster deployment.
const (
	// Namespace is the default namespace the agent is deployed into.
	Namespace = "apexdata"

	// AgentName is the shared name for the DaemonSet, ServiceAccount,
	// ConfigMap and Secret that make up one agent installation.
	AgentName = "apexdata-agent"

	// AgentImage is the default container image for the cluster agent.
	AgentImage = "ghcr.io/apexdata/apexdata-agent:latest"

	// MinServerVersion is the oldest Kubernetes release the agent is
	// validated against. Older clusters trigger a preflight warning.
	MinServerVersion = "1.27"
)

// Timeouts for downstream calls. All operations respect parent context
// deadlines when shorter.
const (
	// ClusterPreflightTimeout bounds the reachability check (discovery
	// ServerVersion call) performed before any mutation.
	ClusterPreflightTimeout = 15 * time.Second

	// ClusterDeployTimeout bounds a single resource create/update call.
	ClusterDeployTimeout = 30 * time.Second

	// RolloutTimeout is the default wait for the DaemonSet to become ready.
	RolloutTimeout = 5 * time.Minute

	// SystemdJobTimeout bounds a single systemd start/stop/restart job.
	SystemdJobTimeout = 30 * time.Second
)
