/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes/fake"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://127.0.0.1:6443
  name: test
contexts:
- context:
    cluster: test
    user: test
  name: test
current-context: test
users:
- name: test
  user:
    token: test-token
`

func TestBuildWithExplicitKubeconfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kubeconfig")
	require.NoError(t, os.WriteFile(path, []byte(testKubeconfig), 0o600))

	clientset, config, err := Build(path)
	require.NoError(t, err)
	require.NotNil(t, clientset)
	assert.Equal(t, "https://127.0.0.1:6443", config.Host)
}

func TestBuildWithKubeconfigEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kubeconfig")
	require.NoError(t, os.WriteFile(path, []byte(testKubeconfig), 0o600))
	t.Setenv("KUBECONFIG", path)

	clientset, config, err := Build("")
	require.NoError(t, err)
	require.NotNil(t, clientset)
	assert.Equal(t, "https://127.0.0.1:6443", config.Host)
}

func TestBuildWithMissingKubeconfig(t *testing.T) {
	_, _, err := Build(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestGetReturnsSingleton(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kubeconfig")
	require.NoError(t, os.WriteFile(path, []byte(testKubeconfig), 0o600))
	t.Setenv("KUBECONFIG", path)

	first, config, err := Get()
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "https://127.0.0.1:6443", config.Host)

	second, _, err := Get()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestPreflight(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	version, err := Preflight(t.Context(), clientset)
	require.NoError(t, err)
	// fake discovery reports an empty version but does not error
	assert.NotNil(t, version)
}

func TestPreflightCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := Preflight(ctx, fake.NewSimpleClientset())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIMEOUT")
}
