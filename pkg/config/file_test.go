/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/etc/apexdata-agent/config"

	original := validSettings()
	require.NoError(t, original.Save(fs, path))

	loaded, err := Load(fs, path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)

	info, err := fs.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, fileMode, int(info.Mode().Perm()))
}

func TestLoadHandWrittenFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := `# hand written
ENDPOINT=https://otel.example.com

AUTH_TOKEN="dXNlcjpwYXNz"
NODE_NAME=node-1
`
	require.NoError(t, afero.WriteFile(fs, "/etc/apexdata-agent/config", []byte(content), 0o600))

	s, err := Load(fs, "/etc/apexdata-agent/config")
	require.NoError(t, err)
	assert.Equal(t, "https://otel.example.com", s.Endpoint)
	assert.Equal(t, "dXNlcjpwYXNz", s.AuthToken)
	assert.Equal(t, "node-1", s.NodeName)
}

func TestRoundTripPreservesEscapes(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/etc/apexdata-agent/config"

	original := validSettings()
	original.NodeName = `edge "rack 7"\primary`
	require.NoError(t, original.Save(fs, path))

	loaded, err := Load(fs, path)
	require.NoError(t, err)
	assert.Equal(t, original.NodeName, loaded.NodeName)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing separator",
			content: "ENDPOINT https://otel.example.com\n",
			wantErr: "malformed line 1",
		},
		{
			name:    "unknown key",
			content: "ENDPONT=https://otel.example.com\n",
			wantErr: "did you mean \"ENDPOINT\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/cfg", []byte(tt.content), 0o600))

			_, err := Load(fs, "/cfg")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := Load(fs, "/does/not/exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_FOUND")
}

func TestSaveOverwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/etc/apexdata-agent/config"

	first := validSettings()
	require.NoError(t, first.Save(fs, path))

	second := first
	second.NodeName = "node-2"
	require.NoError(t, second.Save(fs, path))

	loaded, err := Load(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "node-2", loaded.NodeName)
}
