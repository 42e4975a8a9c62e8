/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"

	apperrors "github.com/apexdata/apexctl/pkg/errors"
)

// Status describes the rollout state of an installed agent.
type Status struct {
	Installed string      `json:"installed" yaml:"installed"`
	Namespace string      `json:"namespace" yaml:"namespace"`
	DeployID  string      `json:"deployID,omitempty" yaml:"deployID,omitempty"`
	Desired   int32       `json:"desired" yaml:"desired"`
	Current   int32       `json:"current" yaml:"current"`
	Ready     int32       `json:"ready" yaml:"ready"`
	Pods      []PodStatus `json:"pods,omitempty" yaml:"pods,omitempty"`
	Events    []string    `json:"events,omitempty" yaml:"events,omitempty"`
}

// PodStatus is the per-pod slice of Status.
type PodStatus struct {
	Name  string `json:"name" yaml:"name"`
	Node  string `json:"node" yaml:"node"`
	Phase string `json:"phase" yaml:"phase"`
}

// Status gathers the DaemonSet rollout state, per-pod phases, and recent
// warning events. The three reads run concurrently.
func (d *Deployer) Status(ctx context.Context) (*Status, error) {
	status := &Status{
		Installed: "yes",
		Namespace: d.config.Namespace,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ds, err := d.clientset.AppsV1().DaemonSets(d.config.Namespace).
			Get(gctx, d.config.Name, metav1.GetOptions{})
		if errors.IsNotFound(err) {
			status.Installed = "no"
			return nil
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to read DaemonSet", err)
		}
		status.DeployID = ds.Labels[deployIDLabel]
		status.Desired = ds.Status.DesiredNumberScheduled
		status.Current = ds.Status.CurrentNumberScheduled
		status.Ready = ds.Status.NumberReady
		return nil
	})

	g.Go(func() error {
		pods, err := d.clientset.CoreV1().Pods(d.config.Namespace).List(gctx, metav1.ListOptions{
			LabelSelector: labels.Set(d.selectorLabels()).String(),
		})
		if err != nil {
			if errors.IsNotFound(err) {
				return nil
			}
			return apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to list agent pods", err)
		}
		for _, pod := range pods.Items {
			status.Pods = append(status.Pods, PodStatus{
				Name:  pod.Name,
				Node:  pod.Spec.NodeName,
				Phase: string(pod.Status.Phase),
			})
		}
		sort.Slice(status.Pods, func(i, j int) bool {
			return status.Pods[i].Name < status.Pods[j].Name
		})
		return nil
	})

	g.Go(func() error {
		events, err := d.clientset.CoreV1().Events(d.config.Namespace).List(gctx, metav1.ListOptions{
			FieldSelector: "type=" + corev1.EventTypeWarning,
		})
		if err != nil {
			// Events are best-effort context; missing permission to read
			// them does not fail status.
			return nil
		}
		for _, ev := range events.Items {
			status.Events = append(status.Events,
				fmt.Sprintf("%s %s: %s", ev.Reason, ev.InvolvedObject.Name, ev.Message))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Pods and events from a previous install are meaningless when the
	// DaemonSet itself is gone.
	if status.Installed == "no" {
		status.Pods = nil
		status.Events = nil
	}

	return status, nil
}
