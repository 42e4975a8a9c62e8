/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package systemd

import (
	"bytes"
	"text/template"

	"github.com/apexdata/apexctl/pkg/config"
	apperrors "github.com/apexdata/apexctl/pkg/errors"
)

// unitTemplate is the systemd unit rendered at install time. The agent flags
// carry the same three values persisted in the config file; the install ID
// comment ties the unit back to one apexctl run.
const unitTemplate = `# Managed by apexctl. Install ID: {{.InstallID}}
[Unit]
Description=ApexData telemetry agent
Documentation=https://github.com/apexdata/apexctl
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart={{.BinaryPath}} --endpoint "{{.Settings.Endpoint}}" --auth-header "Basic {{.Settings.AuthToken}}" --node-name "{{.Settings.NodeName}}"
EnvironmentFile=-{{.ConfigPath}}
Restart=on-failure
RestartSec=5s
NoNewPrivileges=true
ProtectSystem=full
ProtectHome=true

[Install]
WantedBy=multi-user.target
`

var unitTmpl = template.Must(template.New("unit").Parse(unitTemplate))

type unitParams struct {
	InstallID  string
	BinaryPath string
	ConfigPath string
	Settings   config.Settings
}

// RenderUnit produces the unit file contents for the given settings.
func RenderUnit(settings config.Settings, paths Paths, installID string) ([]byte, error) {
	var buf bytes.Buffer
	err := unitTmpl.Execute(&buf, unitParams{
		InstallID:  installID,
		BinaryPath: paths.Binary,
		ConfigPath: paths.Config,
		Settings:   settings,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to render unit file", err)
	}
	return buf.Bytes(), nil
}
