/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	"context"
	"log/slog"
	"time"
)

// Deploy applies the full agent resource set: Namespace, Secret, ConfigMap,
// ServiceAccount, ClusterRole + ClusterRoleBinding, then the DaemonSet.
// Creation is idempotent; Secret, ConfigMap and DaemonSet are updated in
// place when they already exist.
func (d *Deployer) Deploy(ctx context.Context) error {
	start := time.Now()
	slog.Info("deploying agent",
		"namespace", d.config.Namespace,
		"name", d.config.Name,
		"image", d.config.Image,
		"deployID", d.config.DeployID)

	steps := []struct {
		kind string
		fn   func(context.Context) error
	}{
		{"Namespace", d.ensureNamespace},
		{"Secret", d.ensureSecret},
		{"ConfigMap", d.ensureConfigMap},
		{"ServiceAccount", d.ensureServiceAccount},
		{"ClusterRole", d.ensureClusterRole},
		{"ClusterRoleBinding", d.ensureClusterRoleBinding},
		{"DaemonSet", d.ensureDaemonSet},
	}

	for _, step := range steps {
		if err := wrapResource("ensure", step.kind, step.fn(ctx)); err != nil {
			deployTotal.WithLabelValues("error").Inc()
			return err
		}
		slog.Debug("resource ensured", "kind", step.kind)
	}

	deployTotal.WithLabelValues("success").Inc()
	deployDuration.Observe(time.Since(start).Seconds())
	return nil
}

// Uninstall removes the agent resource set in reverse order of creation,
// tolerating resources that are already gone.
func (d *Deployer) Uninstall(ctx context.Context, opts UninstallOptions) error {
	slog.Info("uninstalling agent",
		"namespace", d.config.Namespace,
		"name", d.config.Name,
		"keepNamespace", opts.KeepNamespace)

	steps := []struct {
		kind string
		fn   func(context.Context) error
	}{
		{"DaemonSet", d.deleteDaemonSet},
		{"ClusterRoleBinding", d.deleteClusterRoleBinding},
		{"ClusterRole", d.deleteClusterRole},
		{"ServiceAccount", d.deleteServiceAccount},
		{"ConfigMap", d.deleteConfigMap},
		{"Secret", d.deleteSecret},
	}

	for _, step := range steps {
		if err := wrapResource("delete", step.kind, step.fn(ctx)); err != nil {
			return err
		}
		slog.Debug("resource deleted", "kind", step.kind)
	}

	if !opts.KeepNamespace {
		if err := wrapResource("delete", "Namespace", d.deleteNamespace(ctx)); err != nil {
			return err
		}
	}

	return nil
}

// Manifests returns the resource set as typed objects in apply order, used
// by dry-run to serialize what Deploy would create.
func (d *Deployer) Manifests() []any {
	return []any{
		d.buildNamespace(),
		d.buildSecret(),
		d.buildConfigMap(),
		d.buildServiceAccount(),
		d.buildClusterRole(),
		d.buildClusterRoleBinding(),
		d.buildDaemonSet(),
	}
}
