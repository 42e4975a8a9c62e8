/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	apperrors "github.com/apexdata/apexctl/pkg/errors"
)

func readyDaemonSet(cfg Config) *appsv1.DaemonSet {
	return &appsv1.DaemonSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:      cfg.Name,
			Namespace: cfg.Namespace,
			Labels: map[string]string{
				nameLabel:     cfg.Name,
				deployIDLabel: cfg.DeployID,
			},
		},
		Status: appsv1.DaemonSetStatus{
			DesiredNumberScheduled: 2,
			CurrentNumberScheduled: 2,
			UpdatedNumberScheduled: 2,
			NumberReady:            2,
		},
	}
}

func agentPod(cfg Config, name, node string, phase corev1.PodPhase) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: cfg.Namespace,
			Labels:    map[string]string{nameLabel: cfg.Name},
		},
		Spec:   corev1.PodSpec{NodeName: node},
		Status: corev1.PodStatus{Phase: phase},
	}
}

func TestStatusInstalled(t *testing.T) {
	cfg := testConfig()
	clientset := fake.NewSimpleClientset(
		readyDaemonSet(cfg),
		agentPod(cfg, "apexdata-agent-b", "node-2", corev1.PodRunning),
		agentPod(cfg, "apexdata-agent-a", "node-1", corev1.PodRunning),
	)
	d := NewDeployer(clientset, cfg)

	status, err := d.Status(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "yes", status.Installed)
	assert.Equal(t, "test-deploy-id", status.DeployID)
	assert.Equal(t, int32(2), status.Desired)
	assert.Equal(t, int32(2), status.Ready)
	require.Len(t, status.Pods, 2)
	// sorted by name
	assert.Equal(t, "apexdata-agent-a", status.Pods[0].Name)
	assert.Equal(t, "node-1", status.Pods[0].Node)
	assert.Equal(t, "Running", status.Pods[0].Phase)
}

func TestStatusNotInstalled(t *testing.T) {
	d := NewDeployer(fake.NewSimpleClientset(), testConfig())

	status, err := d.Status(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "no", status.Installed)
	assert.Empty(t, status.Pods)
	assert.Zero(t, status.Desired)
}

func TestDaemonSetReady(t *testing.T) {
	tests := []struct {
		name string
		ds   appsv1.DaemonSetStatus
		gen  int64
		obs  int64
		want bool
	}{
		{
			name: "all ready",
			ds: appsv1.DaemonSetStatus{
				DesiredNumberScheduled: 3,
				UpdatedNumberScheduled: 3,
				NumberReady:            3,
			},
			want: true,
		},
		{
			name: "pods not ready",
			ds: appsv1.DaemonSetStatus{
				DesiredNumberScheduled: 3,
				UpdatedNumberScheduled: 3,
				NumberReady:            1,
			},
			want: false,
		},
		{
			name: "rollout not observed",
			ds: appsv1.DaemonSetStatus{
				DesiredNumberScheduled: 1,
				UpdatedNumberScheduled: 1,
				NumberReady:            1,
			},
			gen:  2,
			obs:  1,
			want: false,
		},
		{
			name: "no matching nodes counts as ready",
			ds:   appsv1.DaemonSetStatus{},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := &appsv1.DaemonSet{Status: tt.ds}
			ds.Generation = tt.gen
			ds.Status.ObservedGeneration = tt.obs
			assert.Equal(t, tt.want, daemonSetReady(ds))
		})
	}
}

func TestWaitForRolloutTimeout(t *testing.T) {
	cfg := testConfig()
	notReady := readyDaemonSet(cfg)
	notReady.Status.NumberReady = 0
	clientset := fake.NewSimpleClientset(notReady)
	d := NewDeployer(clientset, cfg)

	err := d.WaitForRollout(t.Context(), 100*time.Millisecond)
	require.Error(t, err)

	var structured *apperrors.StructuredError
	require.ErrorAs(t, err, &structured)
	assert.Equal(t, apperrors.ErrCodeTimeout, structured.Code)
}
