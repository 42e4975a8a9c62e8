/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/apexdata/apexctl/pkg/config"
)

// ignoreAlreadyExists returns nil if the error is "already exists", otherwise
// returns the error. Used to make resource creation idempotent.
func ignoreAlreadyExists(err error) error {
	if errors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

// ignoreNotFound returns nil if the error is "not found", otherwise returns
// the error. Used to make resource deletion idempotent.
func ignoreNotFound(err error) error {
	if errors.IsNotFound(err) {
		return nil
	}
	return err
}

func (d *Deployer) buildNamespace() *corev1.Namespace {
	return &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:   d.config.Namespace,
			Labels: d.selectorLabels(),
		},
	}
}

func (d *Deployer) ensureNamespace(ctx context.Context) error {
	_, err := d.clientset.CoreV1().Namespaces().
		Create(ctx, d.buildNamespace(), metav1.CreateOptions{})
	return ignoreAlreadyExists(err)
}

func (d *Deployer) buildSecret() *corev1.Secret {
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      d.config.Name,
			Namespace: d.config.Namespace,
			Labels:    d.labels(),
		},
		Type: corev1.SecretTypeOpaque,
		StringData: map[string]string{
			config.KeyAuthToken: d.config.Settings.AuthToken,
		},
	}
}

// ensureSecret creates the credentials Secret, updating it in place when it
// already exists so re-deploys pick up rotated credentials.
func (d *Deployer) ensureSecret(ctx context.Context) error {
	secrets := d.clientset.CoreV1().Secrets(d.config.Namespace)
	_, err := secrets.Create(ctx, d.buildSecret(), metav1.CreateOptions{})
	if errors.IsAlreadyExists(err) {
		_, err = secrets.Update(ctx, d.buildSecret(), metav1.UpdateOptions{})
	}
	return err
}

func (d *Deployer) buildConfigMap() *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      d.config.Name,
			Namespace: d.config.Namespace,
			Labels:    d.labels(),
		},
		Data: map[string]string{
			config.KeyEndpoint: d.config.Settings.Endpoint,
			config.KeyNodeName: d.config.Settings.NodeName,
		},
	}
}

func (d *Deployer) ensureConfigMap(ctx context.Context) error {
	cms := d.clientset.CoreV1().ConfigMaps(d.config.Namespace)
	_, err := cms.Create(ctx, d.buildConfigMap(), metav1.CreateOptions{})
	if errors.IsAlreadyExists(err) {
		_, err = cms.Update(ctx, d.buildConfigMap(), metav1.UpdateOptions{})
	}
	return err
}

func (d *Deployer) buildServiceAccount() *corev1.ServiceAccount {
	return &corev1.ServiceAccount{
		ObjectMeta: metav1.ObjectMeta{
			Name:      d.config.Name,
			Namespace: d.config.Namespace,
			Labels:    d.labels(),
		},
	}
}

func (d *Deployer) ensureServiceAccount(ctx context.Context) error {
	_, err := d.clientset.CoreV1().ServiceAccounts(d.config.Namespace).
		Create(ctx, d.buildServiceAccount(), metav1.CreateOptions{})
	return ignoreAlreadyExists(err)
}

// buildClusterRole grants read access to node metadata so the agent can
// resolve the node it runs on.
func (d *Deployer) buildClusterRole() *rbacv1.ClusterRole {
	return &rbacv1.ClusterRole{
		ObjectMeta: metav1.ObjectMeta{
			Name:   clusterRoleName,
			Labels: d.labels(),
		},
		Rules: []rbacv1.PolicyRule{
			{
				APIGroups: []string{""},
				Resources: []string{"nodes"},
				Verbs:     []string{"get", "list"},
			},
		},
	}
}

func (d *Deployer) ensureClusterRole(ctx context.Context) error {
	_, err := d.clientset.RbacV1().ClusterRoles().
		Create(ctx, d.buildClusterRole(), metav1.CreateOptions{})
	return ignoreAlreadyExists(err)
}

func (d *Deployer) buildClusterRoleBinding() *rbacv1.ClusterRoleBinding {
	return &rbacv1.ClusterRoleBinding{
		ObjectMeta: metav1.ObjectMeta{
			Name:   clusterRoleName,
			Labels: d.labels(),
		},
		Subjects: []rbacv1.Subject{
			{
				Kind:      rbacv1.ServiceAccountKind,
				Name:      d.config.Name,
				Namespace: d.config.Namespace,
			},
		},
		RoleRef: rbacv1.RoleRef{
			APIGroup: rbacv1.GroupName,
			Kind:     "ClusterRole",
			Name:     clusterRoleName,
		},
	}
}

func (d *Deployer) ensureClusterRoleBinding(ctx context.Context) error {
	_, err := d.clientset.RbacV1().ClusterRoleBindings().
		Create(ctx, d.buildClusterRoleBinding(), metav1.CreateOptions{})
	return ignoreAlreadyExists(err)
}

func (d *Deployer) deleteDaemonSet(ctx context.Context) error {
	propagation := metav1.DeletePropagationForeground
	err := d.clientset.AppsV1().DaemonSets(d.config.Namespace).
		Delete(ctx, d.config.Name, metav1.DeleteOptions{PropagationPolicy: &propagation})
	return ignoreNotFound(err)
}

func (d *Deployer) deleteSecret(ctx context.Context) error {
	err := d.clientset.CoreV1().Secrets(d.config.Namespace).
		Delete(ctx, d.config.Name, metav1.DeleteOptions{})
	return ignoreNotFound(err)
}

func (d *Deployer) deleteConfigMap(ctx context.Context) error {
	err := d.clientset.CoreV1().ConfigMaps(d.config.Namespace).
		Delete(ctx, d.config.Name, metav1.DeleteOptions{})
	return ignoreNotFound(err)
}

func (d *Deployer) deleteServiceAccount(ctx context.Context) error {
	err := d.clientset.CoreV1().ServiceAccounts(d.config.Namespace).
		Delete(ctx, d.config.Name, metav1.DeleteOptions{})
	return ignoreNotFound(err)
}

func (d *Deployer) deleteClusterRole(ctx context.Context) error {
	err := d.clientset.RbacV1().ClusterRoles().
		Delete(ctx, clusterRoleName, metav1.DeleteOptions{})
	return ignoreNotFound(err)
}

func (d *Deployer) deleteClusterRoleBinding(ctx context.Context) error {
	err := d.clientset.RbacV1().ClusterRoleBindings().
		Delete(ctx, clusterRoleName, metav1.DeleteOptions{})
	return ignoreNotFound(err)
}

func (d *Deployer) deleteNamespace(ctx context.Context) error {
	err := d.clientset.CoreV1().Namespaces().
		Delete(ctx, d.config.Namespace, metav1.DeleteOptions{})
	return ignoreNotFound(err)
}

func wrapResource(action, kind string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s %s: %w", action, kind, err)
}
