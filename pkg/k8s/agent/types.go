/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/apexdata/apexctl/pkg/config"
)

// Resource labels applied to everything one deploy creates. The deploy ID
// changes on every deploy so status can attribute resources to a run.
const (
	nameLabel     = "app.kubernetes.io/name"
	deployIDLabel = "deploy.apexdata.io/id"
)

// clusterRoleName is the name used for the ClusterRole and ClusterRoleBinding
// granting the agent read access to node metadata.
const clusterRoleName = "apexdata-node-reader"

// Config holds the configuration for deploying the agent DaemonSet.
type Config struct {
	Namespace    string
	Name         string
	Image        string
	NodeSelector map[string]string
	Tolerations  []corev1.Toleration

	// DeployID uniquely identifies one deploy run; stamped on all resources.
	DeployID string

	// Settings carries the endpoint, credentials, and cluster identity that
	// get wired into the agent pods.
	Settings config.Settings
}

// Deployer manages the lifecycle of the agent resource set: Namespace,
// Secret, ConfigMap, ServiceAccount, ClusterRole(+Binding), and DaemonSet.
type Deployer struct {
	clientset kubernetes.Interface
	config    Config
}

// NewDeployer creates a Deployer with the given configuration.
func NewDeployer(clientset kubernetes.Interface, config Config) *Deployer {
	return &Deployer{
		clientset: clientset,
		config:    config,
	}
}

// UninstallOptions controls what Uninstall removes.
type UninstallOptions struct {
	// KeepNamespace leaves the namespace behind after removing the agent.
	KeepNamespace bool
}

func (d *Deployer) labels() map[string]string {
	return map[string]string{
		nameLabel:     d.config.Name,
		deployIDLabel: d.config.DeployID,
	}
}

// selectorLabels excludes the deploy ID so pod selectors stay stable across
// re-deploys (DaemonSet selectors are immutable).
func (d *Deployer) selectorLabels() map[string]string {
	return map[string]string{
		nameLabel: d.config.Name,
	}
}
