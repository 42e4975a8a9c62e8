/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package systemd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/apexdata/apexctl/pkg/config"
	"github.com/apexdata/apexctl/pkg/defaults"
	apperrors "github.com/apexdata/apexctl/pkg/errors"
)

// Unit file and binary permissions.
const (
	unitMode   = 0o644
	binaryMode = 0o755
)

// writeFlags truncates any previous binary so partial writes from a failed
// update never execute.
const writeFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC

func isNotExist(err error) bool {
	return os.IsNotExist(err)
}

var titleCaser = cases.Title(language.English)

// Install copies the agent binary into place, persists the settings, renders
// and writes the unit file, then reloads systemd and enables and starts the
// unit. Installing over an existing installation requires Force.
func (m *Manager) Install(ctx context.Context, opts InstallOptions) error {
	if err := opts.Settings.Validate(); err != nil {
		return err
	}

	if exists, _ := afero.Exists(m.fs, m.paths.Unit); exists && !opts.Force {
		return apperrors.New(apperrors.ErrCodeAlreadyExists,
			fmt.Sprintf("unit file %s already exists, use --force to overwrite", m.paths.Unit))
	}

	slog.Info("installing agent service",
		"binary", m.paths.Binary,
		"unit", m.paths.Unit,
		"installID", opts.InstallID)

	if err := m.copyBinary(opts.BinarySource); err != nil {
		serviceOpTotal.WithLabelValues("install", "error").Inc()
		return err
	}

	if err := opts.Settings.Save(m.fs, m.paths.Config); err != nil {
		return err
	}

	unit, err := RenderUnit(opts.Settings, m.paths, opts.InstallID)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(m.fs, m.paths.Unit, unit, unitMode); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to write unit file", err)
	}

	if err := m.conn.ReloadContext(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeUnavailable, "daemon-reload failed", err)
	}

	if _, _, err := m.conn.EnableUnitFilesContext(ctx, []string{m.paths.Unit}, false, true); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to enable unit", err)
	}

	if err := m.Start(ctx); err != nil {
		return err
	}

	serviceOpTotal.WithLabelValues("install", "success").Inc()
	return nil
}

// Uninstall stops and disables the unit and removes the unit file, binary,
// and config directory. Pieces that are already gone are skipped.
func (m *Manager) Uninstall(ctx context.Context) error {
	slog.Info("uninstalling agent service", "unit", defaults.UnitName)

	// Stopping a unit that was never loaded fails; that is not an error
	// during uninstall.
	if err := m.Stop(ctx); err != nil {
		slog.Debug("stop during uninstall skipped", "error", err)
	}

	if _, err := m.conn.DisableUnitFilesContext(ctx, []string{defaults.UnitName}, false); err != nil {
		slog.Debug("disable during uninstall skipped", "error", err)
	}

	for _, path := range []string{m.paths.Unit, m.paths.Binary} {
		if err := m.fs.Remove(path); err != nil && !isNotExist(err) {
			return apperrors.WrapWithContext(apperrors.ErrCodeInternal,
				"failed to remove file", err, map[string]any{"path": path})
		}
	}
	if err := m.fs.RemoveAll(m.paths.ConfigDir); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to remove config directory", err)
	}

	if err := m.conn.ReloadContext(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeUnavailable, "daemon-reload failed", err)
	}

	serviceOpTotal.WithLabelValues("uninstall", "success").Inc()
	return nil
}

// Start starts the unit and waits for the job result.
func (m *Manager) Start(ctx context.Context) error {
	return m.runJob(ctx, "start", m.conn.StartUnitContext)
}

// Stop stops the unit and waits for the job result.
func (m *Manager) Stop(ctx context.Context) error {
	return m.runJob(ctx, "stop", m.conn.StopUnitContext)
}

// Restart restarts the unit and waits for the job result.
func (m *Manager) Restart(ctx context.Context) error {
	return m.runJob(ctx, "restart", m.conn.RestartUnitContext)
}

type jobFunc func(ctx context.Context, name, mode string, ch chan<- string) (int, error)

// runJob issues one systemd job and blocks until systemd reports its result.
// Any result other than "done" is a failure.
func (m *Manager) runJob(ctx context.Context, op string, fn jobFunc) error {
	jobCtx, cancel := context.WithTimeout(ctx, defaults.SystemdJobTimeout)
	defer cancel()

	results := make(chan string, 1)
	if _, err := fn(jobCtx, defaults.UnitName, "replace", results); err != nil {
		serviceOpTotal.WithLabelValues(op, "error").Inc()
		return apperrors.Wrap(apperrors.ErrCodeUnavailable,
			fmt.Sprintf("failed to %s %s", op, defaults.UnitName), err)
	}

	select {
	case <-jobCtx.Done():
		serviceOpTotal.WithLabelValues(op, "error").Inc()
		return apperrors.New(apperrors.ErrCodeTimeout,
			fmt.Sprintf("timeout waiting for %s job", op))
	case result := <-results:
		if result != "done" {
			serviceOpTotal.WithLabelValues(op, "error").Inc()
			return apperrors.New(apperrors.ErrCodeInternal,
				fmt.Sprintf("%s job for %s finished with result %q", op, defaults.UnitName, result))
		}
	}

	serviceOpTotal.WithLabelValues(op, "success").Inc()
	return nil
}

// Status reads the unit's load/active/sub state and main PID from its D-Bus
// properties.
func (m *Manager) Status(ctx context.Context) (*UnitStatus, error) {
	props, err := m.conn.GetUnitPropertiesContext(ctx, defaults.UnitName)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to get unit properties", err)
	}

	status := &UnitStatus{
		Unit:        defaults.UnitName,
		LoadState:   propString(props, "LoadState"),
		ActiveState: propString(props, "ActiveState"),
		SubState:    propString(props, "SubState"),
	}
	status.State = fmt.Sprintf("%s (%s)",
		titleCaser.String(status.ActiveState),
		titleCaser.String(status.SubState))

	if pid, ok := props["MainPID"].(uint32); ok {
		status.MainPID = pid
	}

	// ExecMainStartTimestamp is microseconds since the epoch.
	if usec, ok := props["ExecMainStartTimestamp"].(uint64); ok && usec > 0 && status.ActiveState == "active" {
		started := time.UnixMicro(int64(usec))
		status.Uptime = time.Since(started).Round(time.Second).String()
	}

	return status, nil
}

// UpdateBinary replaces the installed binary from a reader and restarts the
// service. Used by `service update` for both local files and OCI pulls.
func (m *Manager) UpdateBinary(ctx context.Context, source io.Reader) error {
	if exists, _ := afero.Exists(m.fs, m.paths.Unit); !exists {
		return apperrors.New(apperrors.ErrCodeNotFound, "agent service is not installed")
	}

	if err := m.writeBinary(source); err != nil {
		serviceOpTotal.WithLabelValues("update", "error").Inc()
		return err
	}

	if err := m.Restart(ctx); err != nil {
		return err
	}

	serviceOpTotal.WithLabelValues("update", "success").Inc()
	return nil
}

// LoadSettings reads the persisted settings from the config file.
func (m *Manager) LoadSettings() (config.Settings, error) {
	return config.Load(m.fs, m.paths.Config)
}

// UpdateSettings persists new settings, re-renders the unit file, reloads
// systemd, and restarts the service so the change takes effect.
func (m *Manager) UpdateSettings(ctx context.Context, settings config.Settings, installID string) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	if err := settings.Save(m.fs, m.paths.Config); err != nil {
		return err
	}

	unit, err := RenderUnit(settings, m.paths, installID)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(m.fs, m.paths.Unit, unit, unitMode); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to write unit file", err)
	}

	if err := m.conn.ReloadContext(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeUnavailable, "daemon-reload failed", err)
	}

	return m.Restart(ctx)
}

func (m *Manager) copyBinary(source string) error {
	f, err := m.fs.Open(source)
	if err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeNotFound,
			"failed to open agent binary", err, map[string]any{"path": source})
	}
	defer func() { _ = f.Close() }()
	return m.writeBinary(f)
}

func (m *Manager) writeBinary(source io.Reader) error {
	dst, err := m.fs.OpenFile(m.paths.Binary, writeFlags, binaryMode)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create agent binary", err)
	}

	if _, err := io.Copy(dst, source); err != nil {
		_ = dst.Close()
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to copy agent binary", err)
	}
	if err := dst.Close(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to finalize agent binary", err)
	}
	return nil
}

func propString(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}
