/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package systemd

import (
	"context"
	"strings"
	"testing"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexdata/apexctl/pkg/config"
	apperrors "github.com/apexdata/apexctl/pkg/errors"
)

// fakeConn records D-Bus calls and plays back configured results.
type fakeConn struct {
	reloads    int
	enabled    []string
	disabled   []string
	jobs       []string
	jobResult  string
	properties map[string]any
	closed     bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		jobResult: "done",
		properties: map[string]any{
			"LoadState":   "loaded",
			"ActiveState": "active",
			"SubState":    "running",
			"MainPID":     uint32(4242),
		},
	}
}

func (f *fakeConn) ReloadContext(_ context.Context) error {
	f.reloads++
	return nil
}

func (f *fakeConn) EnableUnitFilesContext(_ context.Context, files []string, _, _ bool) (bool, []dbus.EnableUnitFileChange, error) {
	f.enabled = append(f.enabled, files...)
	return true, nil, nil
}

func (f *fakeConn) DisableUnitFilesContext(_ context.Context, files []string, _ bool) ([]dbus.DisableUnitFileChange, error) {
	f.disabled = append(f.disabled, files...)
	return nil, nil
}

func (f *fakeConn) job(op string, ch chan<- string) (int, error) {
	f.jobs = append(f.jobs, op)
	ch <- f.jobResult
	return len(f.jobs), nil
}

func (f *fakeConn) StartUnitContext(_ context.Context, _, _ string, ch chan<- string) (int, error) {
	return f.job("start", ch)
}

func (f *fakeConn) StopUnitContext(_ context.Context, _, _ string, ch chan<- string) (int, error) {
	return f.job("stop", ch)
}

func (f *fakeConn) RestartUnitContext(_ context.Context, _, _ string, ch chan<- string) (int, error) {
	return f.job("restart", ch)
}

func (f *fakeConn) GetUnitPropertiesContext(_ context.Context, _ string) (map[string]any, error) {
	return f.properties, nil
}

func (f *fakeConn) Close() { f.closed = true }

func testManager(t *testing.T) (*Manager, *fakeConn, afero.Fs) {
	t.Helper()
	conn := newFakeConn()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tmp/apexdata-agent", []byte("fake-binary"), 0o755))
	return NewManager(conn, fs, DefaultPaths()), conn, fs
}

func testInstallOptions() InstallOptions {
	return InstallOptions{
		BinarySource: "/tmp/apexdata-agent",
		InstallID:    "install-test-id",
		Settings: config.Settings{
			Endpoint:  "https://otel.example.com:4318",
			AuthToken: "dXNlcjpwYXNz",
			NodeName:  "host-1",
		},
	}
}

func TestInstall(t *testing.T) {
	m, conn, fs := testManager(t)

	require.NoError(t, m.Install(t.Context(), testInstallOptions()))

	// binary copied into place, executable
	data, err := afero.ReadFile(fs, DefaultPaths().Binary)
	require.NoError(t, err)
	assert.Equal(t, "fake-binary", string(data))

	// settings persisted
	loaded, err := m.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "host-1", loaded.NodeName)

	// unit rendered with flags and install ID
	unit, err := afero.ReadFile(fs, DefaultPaths().Unit)
	require.NoError(t, err)
	assert.Contains(t, string(unit), `--endpoint "https://otel.example.com:4318"`)
	assert.Contains(t, string(unit), `--auth-header "Basic dXNlcjpwYXNz"`)
	assert.Contains(t, string(unit), `--node-name "host-1"`)
	assert.Contains(t, string(unit), "Install ID: install-test-id")

	// systemd sequence: reload, enable, start
	assert.Equal(t, 1, conn.reloads)
	assert.Equal(t, []string{DefaultPaths().Unit}, conn.enabled)
	assert.Equal(t, []string{"start"}, conn.jobs)
}

func TestInstallOverExistingFails(t *testing.T) {
	m, _, fs := testManager(t)
	require.NoError(t, afero.WriteFile(fs, DefaultPaths().Unit, []byte("old"), 0o644))

	err := m.Install(t.Context(), testInstallOptions())
	require.Error(t, err)

	var structured *apperrors.StructuredError
	require.ErrorAs(t, err, &structured)
	assert.Equal(t, apperrors.ErrCodeAlreadyExists, structured.Code)

	// --force overwrites
	opts := testInstallOptions()
	opts.Force = true
	assert.NoError(t, m.Install(t.Context(), opts))
}

func TestInstallRejectsInvalidSettings(t *testing.T) {
	m, conn, _ := testManager(t)

	opts := testInstallOptions()
	opts.Settings.Endpoint = ""
	require.Error(t, m.Install(t.Context(), opts))

	// nothing touched systemd
	assert.Zero(t, conn.reloads)
	assert.Empty(t, conn.jobs)
}

func TestInstallMissingBinary(t *testing.T) {
	m, _, _ := testManager(t)
	opts := testInstallOptions()
	opts.BinarySource = "/does/not/exist"

	err := m.Install(t.Context(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_FOUND")
}

func TestUninstall(t *testing.T) {
	m, conn, fs := testManager(t)
	require.NoError(t, m.Install(t.Context(), testInstallOptions()))

	require.NoError(t, m.Uninstall(t.Context()))

	for _, path := range []string{DefaultPaths().Unit, DefaultPaths().Binary, DefaultPaths().Config} {
		exists, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.False(t, exists, "%s should be removed", path)
	}
	assert.Contains(t, conn.jobs, "stop")
	assert.Equal(t, []string{"apexdata-agent.service"}, conn.disabled)
}

func TestUninstallWhenNotInstalledIsClean(t *testing.T) {
	m, _, _ := testManager(t)
	assert.NoError(t, m.Uninstall(t.Context()))
}

func TestLifecycleJobs(t *testing.T) {
	m, conn, _ := testManager(t)

	require.NoError(t, m.Start(t.Context()))
	require.NoError(t, m.Stop(t.Context()))
	require.NoError(t, m.Restart(t.Context()))
	assert.Equal(t, []string{"start", "stop", "restart"}, conn.jobs)
}

func TestFailedJobResult(t *testing.T) {
	m, conn, _ := testManager(t)
	conn.jobResult = "failed"

	err := m.Start(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `result "failed"`)
}

func TestStatus(t *testing.T) {
	m, _, _ := testManager(t)

	status, err := m.Status(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "apexdata-agent.service", status.Unit)
	assert.Equal(t, "loaded", status.LoadState)
	assert.Equal(t, "active", status.ActiveState)
	assert.Equal(t, "Active (Running)", status.State)
	assert.Equal(t, uint32(4242), status.MainPID)
}

func TestUpdateBinary(t *testing.T) {
	m, conn, fs := testManager(t)
	require.NoError(t, m.Install(t.Context(), testInstallOptions()))
	conn.jobs = nil

	require.NoError(t, m.UpdateBinary(t.Context(), strings.NewReader("new-binary")))

	data, err := afero.ReadFile(fs, DefaultPaths().Binary)
	require.NoError(t, err)
	assert.Equal(t, "new-binary", string(data))
	assert.Equal(t, []string{"restart"}, conn.jobs)
}

func TestUpdateBinaryRequiresInstall(t *testing.T) {
	m, _, _ := testManager(t)

	err := m.UpdateBinary(t.Context(), strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not installed")
}

func TestUpdateSettings(t *testing.T) {
	m, conn, fs := testManager(t)
	require.NoError(t, m.Install(t.Context(), testInstallOptions()))
	conn.jobs = nil
	conn.reloads = 0

	settings := testInstallOptions().Settings
	settings.NodeName = "host-2"
	require.NoError(t, m.UpdateSettings(t.Context(), settings, "second-install-id"))

	loaded, err := m.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "host-2", loaded.NodeName)

	unit, err := afero.ReadFile(fs, DefaultPaths().Unit)
	require.NoError(t, err)
	assert.Contains(t, string(unit), `--node-name "host-2"`)

	assert.Equal(t, 1, conn.reloads)
	assert.Equal(t, []string{"restart"}, conn.jobs)
}
