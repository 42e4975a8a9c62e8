/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package client

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	k8sversion "k8s.io/apimachinery/pkg/version"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	"github.com/apexdata/apexctl/pkg/defaults"
	apperrors "github.com/apexdata/apexctl/pkg/errors"
	"github.com/apexdata/apexctl/pkg/version"
)

// Interface aliases kubernetes.Interface so callers can be tested with
// fake.NewSimpleClientset().
type Interface = kubernetes.Interface

var (
	clientOnce   sync.Once
	cachedClient *kubernetes.Clientset
	cachedConfig *rest.Config
	clientErr    error
)

// Get returns a singleton Kubernetes client using automatic kubeconfig
// discovery, creating it on first call. Subsequent calls return the cached
// client for connection reuse.
func Get() (Interface, *rest.Config, error) {
	clientOnce.Do(func() {
		cachedClient, cachedConfig, clientErr = Build("")
	})
	return cachedClient, cachedConfig, clientErr
}

// Build creates a Kubernetes client from the given kubeconfig file,
// bypassing the singleton cache.
//
// When kubeconfig is empty, discovery falls back in order to the KUBECONFIG
// environment variable, ~/.kube/config, and finally the in-cluster service
// account.
func Build(kubeconfig string) (*kubernetes.Clientset, *rest.Config, error) {
	var config *rest.Config
	var err error

	if kubeconfig == "" {
		kubeconfig = os.Getenv("KUBECONFIG")

		if kubeconfig == "" {
			kubeconfig = filepath.Join(homedir.HomeDir(), ".kube", "config")
			if _, err = os.Stat(kubeconfig); os.IsNotExist(err) {
				kubeconfig = ""
			}
		}
	}

	if kubeconfig == "" {
		config, err = rest.InClusterConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get in-cluster config: %w", err)
		}
	} else {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build kube config from %s: %w", kubeconfig, err)
		}
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return clientset, config, nil
}

// Preflight verifies the cluster is reachable by querying the API server
// version. Commands call this before mutating anything so an unreachable or
// misconfigured cluster fails fast. Returns the server git version.
//
// Servers older than defaults.MinServerVersion get a warning, not an error:
// the deploy may still work, but the combination is unvalidated.
func Preflight(ctx context.Context, clientset Interface) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeTimeout, "preflight aborted", err)
	}

	type versionResult struct {
		info *k8sversion.Info
		err  error
	}

	// The typed discovery interface has no context-aware ServerVersion, so
	// the call runs in a goroutine and the deadline applies to the wait.
	ch := make(chan versionResult, 1)
	go func() {
		info, err := clientset.Discovery().ServerVersion()
		ch <- versionResult{info: info, err: err}
	}()

	var info *k8sversion.Info
	select {
	case <-ctx.Done():
		return "", apperrors.Wrap(apperrors.ErrCodeTimeout, "preflight aborted", ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return "", apperrors.Wrap(apperrors.ErrCodeUnavailable, "cluster unreachable", r.err)
		}
		info = r.info
	}

	server, err := version.ParseVersion(info.GitVersion)
	if err != nil {
		slog.Warn("unparseable server version", "gitVersion", info.GitVersion, "error", err)
		return info.GitVersion, nil
	}
	if !server.EqualsOrNewer(version.MustParseVersion(defaults.MinServerVersion)) {
		slog.Warn("server version below validated minimum",
			"serverVersion", server.String(),
			"minimum", defaults.MinServerVersion)
	}

	return info.GitVersion, nil
}
