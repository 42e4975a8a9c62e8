/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/apexdata/apexctl/pkg/config"
)

// Environment variable names the agent binary consumes inside the pod.
const (
	envEndpoint    = "APEXDATA_OTEL_ENDPOINT"
	envCredentials = "APEXDATA_BASE64_CREDENTIALS"
	envClusterName = "APEXDATA_CLUSTER_NAME"
	envNodeName    = "APEXDATA_NODE_NAME"
)

// buildDaemonSet constructs the agent DaemonSet. One pod per node, settings
// wired from the ConfigMap, credentials from the Secret.
func (d *Deployer) buildDaemonSet() *appsv1.DaemonSet {
	return &appsv1.DaemonSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:      d.config.Name,
			Namespace: d.config.Namespace,
			Labels:    d.labels(),
		},
		Spec: appsv1.DaemonSetSpec{
			Selector: &metav1.LabelSelector{
				MatchLabels: d.selectorLabels(),
			},
			UpdateStrategy: appsv1.DaemonSetUpdateStrategy{
				Type: appsv1.RollingUpdateDaemonSetStrategyType,
				RollingUpdate: &appsv1.RollingUpdateDaemonSet{
					MaxUnavailable: ptr.To(intstr.FromInt32(1)),
				},
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: d.labels(),
				},
				Spec: corev1.PodSpec{
					ServiceAccountName: d.config.Name,
					NodeSelector:       d.config.NodeSelector,
					Tolerations:        d.config.Tolerations,
					SecurityContext: &corev1.PodSecurityContext{
						RunAsNonRoot: ptr.To(true),
						RunAsUser:    ptr.To(int64(65532)),
					},
					Containers: []corev1.Container{
						{
							Name:  "agent",
							Image: d.config.Image,
							Env: []corev1.EnvVar{
								{
									Name: envEndpoint,
									ValueFrom: &corev1.EnvVarSource{
										ConfigMapKeyRef: &corev1.ConfigMapKeySelector{
											LocalObjectReference: corev1.LocalObjectReference{Name: d.config.Name},
											Key:                  config.KeyEndpoint,
										},
									},
								},
								{
									Name: envClusterName,
									ValueFrom: &corev1.EnvVarSource{
										ConfigMapKeyRef: &corev1.ConfigMapKeySelector{
											LocalObjectReference: corev1.LocalObjectReference{Name: d.config.Name},
											Key:                  config.KeyNodeName,
										},
									},
								},
								{
									Name: envCredentials,
									ValueFrom: &corev1.EnvVarSource{
										SecretKeyRef: &corev1.SecretKeySelector{
											LocalObjectReference: corev1.LocalObjectReference{Name: d.config.Name},
											Key:                  config.KeyAuthToken,
										},
									},
								},
								{
									Name: envNodeName,
									ValueFrom: &corev1.EnvVarSource{
										FieldRef: &corev1.ObjectFieldSelector{
											FieldPath: "spec.nodeName",
										},
									},
								},
							},
							Resources: corev1.ResourceRequirements{
								Requests: corev1.ResourceList{
									corev1.ResourceCPU:    resource.MustParse("100m"),
									corev1.ResourceMemory: resource.MustParse("128Mi"),
								},
								Limits: corev1.ResourceList{
									corev1.ResourceCPU:    resource.MustParse("500m"),
									corev1.ResourceMemory: resource.MustParse("512Mi"),
								},
							},
							SecurityContext: &corev1.SecurityContext{
								AllowPrivilegeEscalation: ptr.To(false),
								ReadOnlyRootFilesystem:   ptr.To(true),
								Capabilities: &corev1.Capabilities{
									Drop: []corev1.Capability{"ALL"},
								},
							},
						},
					},
				},
			},
		},
	}
}

// ensureDaemonSet creates the DaemonSet or updates it in place so re-deploys
// roll out new settings and images.
func (d *Deployer) ensureDaemonSet(ctx context.Context) error {
	daemonsets := d.clientset.AppsV1().DaemonSets(d.config.Namespace)
	_, err := daemonsets.Create(ctx, d.buildDaemonSet(), metav1.CreateOptions{})
	if errors.IsAlreadyExists(err) {
		_, err = daemonsets.Update(ctx, d.buildDaemonSet(), metav1.UpdateOptions{})
	}
	return err
}
