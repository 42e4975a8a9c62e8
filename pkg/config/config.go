/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/caarlos0/env/v6"

	apperrors "github.com/apexdata/apexctl/pkg/errors"
)

// File keys persisted in the host config file. The same three values flow
// through the cluster path as environment variables.
const (
	KeyEndpoint  = "ENDPOINT"
	KeyAuthToken = "AUTH_TOKEN"
	KeyNodeName  = "NODE_NAME"
)

// RedactedValue replaces the auth token in any human-facing output.
const RedactedValue = "********"

// suggestionMaxDistance caps how far a did-you-mean match may be from the
// unknown key before we stay silent.
const suggestionMaxDistance = 3

// Settings holds the three agent parameters shared by the cluster and host
// deployment paths.
type Settings struct {
	// Endpoint is the OTLP collector URL the agent ships telemetry to.
	Endpoint string `env:"APEXDATA_OTEL_ENDPOINT" json:"endpoint" yaml:"endpoint"`

	// AuthToken is the base64-encoded basic-auth credential pair sent in the
	// Authorization header.
	AuthToken string `env:"APEXDATA_BASE64_CREDENTIALS" json:"authToken" yaml:"authToken"`

	// NodeName identifies the reporting entity: the host name on the service
	// path, the cluster name on the Kubernetes path.
	NodeName string `env:"APEXDATA_CLUSTER_NAME" json:"nodeName" yaml:"nodeName"`
}

// FromEnvironment builds Settings from the APEXDATA_* environment variables.
// Unset variables leave the corresponding field empty; validation is the
// caller's responsibility once all sources (flags, prompts) are merged.
func FromEnvironment() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to parse environment", err)
	}
	return s, nil
}

// Validate checks that all three settings are present and well-formed.
// It fails on the first violation.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Endpoint) == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "endpoint is required")
	}
	u, err := url.Parse(s.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest,
			"endpoint must be an http(s) URL", err,
			map[string]any{"endpoint": s.Endpoint})
	}

	if strings.TrimSpace(s.AuthToken) == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "credentials are required")
	}
	if _, err := base64.StdEncoding.DecodeString(s.AuthToken); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "credentials must be valid base64", err)
	}

	if strings.TrimSpace(s.NodeName) == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "node name is required")
	}

	return nil
}

// Merge returns a copy of s with empty fields filled in from other.
// Used to layer flag values over environment values.
func (s Settings) Merge(other Settings) Settings {
	out := s
	if out.Endpoint == "" {
		out.Endpoint = other.Endpoint
	}
	if out.AuthToken == "" {
		out.AuthToken = other.AuthToken
	}
	if out.NodeName == "" {
		out.NodeName = other.NodeName
	}
	return out
}

// Redacted returns a copy of s safe for display and logging.
func (s Settings) Redacted() Settings {
	out := s
	if out.AuthToken != "" {
		out.AuthToken = RedactedValue
	}
	return out
}

// Get returns the value for a config file key.
func (s Settings) Get(key string) (string, error) {
	switch key {
	case KeyEndpoint:
		return s.Endpoint, nil
	case KeyAuthToken:
		return s.AuthToken, nil
	case KeyNodeName:
		return s.NodeName, nil
	default:
		return "", unknownKeyError(key)
	}
}

// Set assigns value to the field identified by a config file key.
// Unknown keys are rejected with a nearest-key suggestion where one exists.
func (s *Settings) Set(key, value string) error {
	switch key {
	case KeyEndpoint:
		s.Endpoint = value
	case KeyAuthToken:
		s.AuthToken = value
	case KeyNodeName:
		s.NodeName = value
	default:
		return unknownKeyError(key)
	}
	return nil
}

// Keys lists the valid config file keys in their canonical file order.
func Keys() []string {
	return []string{KeyEndpoint, KeyAuthToken, KeyNodeName}
}

func unknownKeyError(key string) error {
	msg := fmt.Sprintf("unknown config key %q", key)
	if suggestion := suggestKey(key); suggestion != "" {
		msg = fmt.Sprintf("%s (did you mean %q?)", msg, suggestion)
	}
	return apperrors.New(apperrors.ErrCodeInvalidRequest, msg)
}

// suggestKey returns the closest valid key within the suggestion distance
// cap, or the empty string when nothing is close enough.
func suggestKey(key string) string {
	upper := strings.ToUpper(key)
	best := ""
	bestDist := suggestionMaxDistance + 1
	for _, candidate := range Keys() {
		if d := levenshtein.ComputeDistance(upper, candidate); d < bestDist {
			best = candidate
			bestDist = d
		}
	}
	return best
}
