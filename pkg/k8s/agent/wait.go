/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"

	apperrors "github.com/apexdata/apexctl/pkg/errors"
)

// pollLimiter paces the fallback polling loop when the watch channel drops.
var pollLimiter = rate.NewLimiter(rate.Every(2*time.Second), 1)

// WaitForRollout blocks until every scheduled agent pod reports ready, the
// timeout expires, or ctx is cancelled. It prefers the watch API and falls
// back to rate-limited polling if the watch cannot be established.
func (d *Deployer) WaitForRollout(ctx context.Context, timeout time.Duration) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	watcher, err := d.clientset.AppsV1().DaemonSets(d.config.Namespace).Watch(
		timeoutCtx,
		metav1.ListOptions{
			FieldSelector: fmt.Sprintf("metadata.name=%s", d.config.Name),
			Watch:         true,
		},
	)
	if err != nil {
		return d.pollForRollout(timeoutCtx, timeout)
	}
	defer watcher.Stop()

	for {
		select {
		case <-timeoutCtx.Done():
			return rolloutTimeout(timeoutCtx, timeout)

		case event, ok := <-watcher.ResultChan():
			if !ok {
				// Watch dropped (API server restart, timeout); fall back to
				// polling for the remainder of the window.
				return d.pollForRollout(timeoutCtx, timeout)
			}

			if event.Type == watch.Error {
				return apperrors.New(apperrors.ErrCodeUnavailable,
					fmt.Sprintf("watch error: %v", event.Object))
			}

			ds, ok := event.Object.(*appsv1.DaemonSet)
			if !ok {
				continue
			}

			if daemonSetReady(ds) {
				return nil
			}
		}
	}
}

// pollForRollout checks the DaemonSet status at a paced interval until ready
// or the context expires.
func (d *Deployer) pollForRollout(ctx context.Context, timeout time.Duration) error {
	for {
		if err := pollLimiter.Wait(ctx); err != nil {
			return rolloutTimeout(ctx, timeout)
		}

		ds, err := d.clientset.AppsV1().DaemonSets(d.config.Namespace).
			Get(ctx, d.config.Name, metav1.GetOptions{})
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to poll DaemonSet", err)
		}

		if daemonSetReady(ds) {
			return nil
		}
	}
}

// daemonSetReady reports whether every scheduled pod of the current
// generation is ready. A DaemonSet with zero desired pods (no matching
// nodes) counts as ready.
func daemonSetReady(ds *appsv1.DaemonSet) bool {
	if ds.Generation != ds.Status.ObservedGeneration {
		return false
	}
	return ds.Status.NumberReady == ds.Status.DesiredNumberScheduled &&
		ds.Status.UpdatedNumberScheduled == ds.Status.DesiredNumberScheduled
}

func rolloutTimeout(ctx context.Context, timeout time.Duration) error {
	if ctx.Err() == context.DeadlineExceeded {
		return apperrors.New(apperrors.ErrCodeTimeout,
			fmt.Sprintf("timeout waiting for rollout after %v", timeout))
	}
	return ctx.Err()
}
