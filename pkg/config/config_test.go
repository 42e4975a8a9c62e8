/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() Settings {
	return Settings{
		Endpoint:  "https://otel.example.com:4318",
		AuthToken: "dXNlcjpwYXNz", // user:pass
		NodeName:  "node-1",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{
			name:   "valid settings",
			mutate: func(_ *Settings) {},
		},
		{
			name:    "missing endpoint",
			mutate:  func(s *Settings) { s.Endpoint = "" },
			wantErr: "endpoint is required",
		},
		{
			name:    "endpoint without scheme",
			mutate:  func(s *Settings) { s.Endpoint = "otel.example.com" },
			wantErr: "http(s) URL",
		},
		{
			name:    "endpoint with bad scheme",
			mutate:  func(s *Settings) { s.Endpoint = "ftp://otel.example.com" },
			wantErr: "http(s) URL",
		},
		{
			name:    "missing credentials",
			mutate:  func(s *Settings) { s.AuthToken = "" },
			wantErr: "credentials are required",
		},
		{
			name:    "credentials not base64",
			mutate:  func(s *Settings) { s.AuthToken = "not base64!!!" },
			wantErr: "valid base64",
		},
		{
			name:    "missing node name",
			mutate:  func(s *Settings) { s.NodeName = "  " },
			wantErr: "node name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFromEnvironment(t *testing.T) {
	t.Setenv("APEXDATA_OTEL_ENDPOINT", "https://otel.example.com")
	t.Setenv("APEXDATA_BASE64_CREDENTIALS", "dXNlcjpwYXNz")
	t.Setenv("APEXDATA_CLUSTER_NAME", "prod-us-east")

	s, err := FromEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "https://otel.example.com", s.Endpoint)
	assert.Equal(t, "dXNlcjpwYXNz", s.AuthToken)
	assert.Equal(t, "prod-us-east", s.NodeName)
}

func TestMerge(t *testing.T) {
	flags := Settings{Endpoint: "https://from-flag.example.com"}
	envs := validSettings()

	merged := flags.Merge(envs)
	assert.Equal(t, "https://from-flag.example.com", merged.Endpoint)
	assert.Equal(t, envs.AuthToken, merged.AuthToken)
	assert.Equal(t, envs.NodeName, merged.NodeName)
}

func TestRedacted(t *testing.T) {
	s := validSettings()
	redacted := s.Redacted()
	assert.Equal(t, RedactedValue, redacted.AuthToken)
	assert.Equal(t, s.Endpoint, redacted.Endpoint)

	// original untouched
	assert.Equal(t, "dXNlcjpwYXNz", s.AuthToken)

	empty := Settings{}
	assert.Empty(t, empty.Redacted().AuthToken)
}

func TestSetAndGet(t *testing.T) {
	var s Settings
	require.NoError(t, s.Set(KeyEndpoint, "https://otel.example.com"))
	require.NoError(t, s.Set(KeyAuthToken, "dXNlcjpwYXNz"))
	require.NoError(t, s.Set(KeyNodeName, "node-1"))

	got, err := s.Get(KeyNodeName)
	require.NoError(t, err)
	assert.Equal(t, "node-1", got)
}

func TestSetUnknownKeySuggestion(t *testing.T) {
	var s Settings
	err := s.Set("AUTH_TOKN", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "AUTH_TOKEN"`)

	// nothing close enough: no suggestion offered
	err = s.Set("COMPLETELY_DIFFERENT", "x")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")
}
