// Package systemd installs and manages the ApexData agent as a systemd
// service on a single host.
//
// The manager talks to systemd over D-Bus rather than shelling out to
// systemctl, and performs all filesystem mutations through an afero.Fs so
// install and uninstall are testable without root. One installation occupies
// three fixed paths: the agent binary, the rendered unit file, and the
// KEY=VALUE settings file the other commands read back.
package systemd
