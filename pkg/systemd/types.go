/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package systemd

import (
	"context"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/spf13/afero"

	"github.com/apexdata/apexctl/pkg/config"
	"github.com/apexdata/apexctl/pkg/defaults"
)

// Conn is the subset of the systemd D-Bus API the manager uses. The concrete
// implementation is *dbus.Conn; tests substitute a fake.
type Conn interface {
	ReloadContext(ctx context.Context) error
	EnableUnitFilesContext(ctx context.Context, files []string, runtime, force bool) (bool, []dbus.EnableUnitFileChange, error)
	DisableUnitFilesContext(ctx context.Context, files []string, runtime bool) ([]dbus.DisableUnitFileChange, error)
	StartUnitContext(ctx context.Context, name, mode string, ch chan<- string) (int, error)
	StopUnitContext(ctx context.Context, name, mode string, ch chan<- string) (int, error)
	RestartUnitContext(ctx context.Context, name, mode string, ch chan<- string) (int, error)
	GetUnitPropertiesContext(ctx context.Context, unit string) (map[string]any, error)
	Close()
}

// Paths groups the filesystem locations one installation occupies. The zero
// value is not usable; DefaultPaths returns the standard layout.
type Paths struct {
	Binary    string
	Unit      string
	Config    string
	ConfigDir string
}

// DefaultPaths returns the fixed installation paths for the agent.
func DefaultPaths() Paths {
	return Paths{
		Binary:    defaults.BinaryPath,
		Unit:      defaults.UnitPath,
		Config:    defaults.ConfigPath,
		ConfigDir: defaults.ConfigDir,
	}
}

// Manager installs and manages the agent systemd service. Filesystem access
// goes through afero so installs can be tested without a real root
// filesystem.
type Manager struct {
	conn  Conn
	fs    afero.Fs
	paths Paths
}

// Connect opens a connection to the systemd manager over D-Bus and returns a
// Manager using the host filesystem and default paths. Callers must Close.
func Connect(ctx context.Context) (*Manager, error) {
	conn, err := dbus.NewSystemdConnectionContext(ctx)
	if err != nil {
		return nil, err
	}
	return NewManager(conn, afero.NewOsFs(), DefaultPaths()), nil
}

// NewManager creates a Manager with explicit collaborators.
func NewManager(conn Conn, fs afero.Fs, paths Paths) *Manager {
	return &Manager{
		conn:  conn,
		fs:    fs,
		paths: paths,
	}
}

// Close releases the underlying D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}

// InstallOptions configures Install.
type InstallOptions struct {
	// BinarySource is the path of the pre-built agent binary to copy into
	// place.
	BinarySource string

	// Settings are persisted to the config file and rendered into the unit.
	Settings config.Settings

	// InstallID uniquely identifies this installation run.
	InstallID string

	// Force allows installing over an existing installation.
	Force bool
}

// UnitStatus describes the current state of the agent unit.
type UnitStatus struct {
	Unit        string `json:"unit" yaml:"unit"`
	LoadState   string `json:"loadState" yaml:"loadState"`
	ActiveState string `json:"activeState" yaml:"activeState"`
	SubState    string `json:"subState" yaml:"subState"`
	State       string `json:"state" yaml:"state"`
	MainPID     uint32 `json:"mainPID,omitempty" yaml:"mainPID,omitempty"`
	Uptime      string `json:"uptime,omitempty" yaml:"uptime,omitempty"`
}
