/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package cli defines the apexctl command tree.
//
// Two command groups cover the two deployment targets: "cluster" manages
// the agent as a Kubernetes DaemonSet, "service" manages it as a systemd
// unit on the local host. Settings resolution (flags over environment
// over interactive prompts) is shared between the two.
package cli
