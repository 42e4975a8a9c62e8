/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package config

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	apperrors "github.com/apexdata/apexctl/pkg/errors"
)

// File permissions for the persisted settings. The config file holds
// credentials so it is not group or world readable.
const (
	dirMode  = 0o755
	fileMode = 0o600
)

// Load reads Settings from a KEY=VALUE file. Blank lines and lines starting
// with '#' are ignored. Unknown keys and malformed lines are errors.
func Load(fs afero.Fs, path string) (Settings, error) {
	f, err := fs.Open(path)
	if err != nil {
		return Settings{}, apperrors.WrapWithContext(apperrors.ErrCodeNotFound,
			"failed to open config file", err, map[string]any{"path": path})
	}
	defer func() { _ = f.Close() }()

	var s Settings
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return Settings{}, apperrors.New(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("malformed line %d in %s: %q", lineNo, path, line))
		}

		if err := s.Set(strings.TrimSpace(key), unquote(strings.TrimSpace(value))); err != nil {
			return Settings{}, fmt.Errorf("line %d in %s: %w", lineNo, path, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return Settings{}, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to read config file", err)
	}

	return s, nil
}

// Save writes Settings as a KEY=VALUE file, creating the parent directory if
// needed. An existing file is overwritten.
func (s Settings) Save(fs afero.Fs, path string) error {
	if err := fs.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create config directory", err)
	}

	var b strings.Builder
	b.WriteString("# ApexData agent settings. Managed by apexctl; edits are\n")
	b.WriteString("# overwritten by `apexctl service config set`.\n")
	fmt.Fprintf(&b, "%s=%q\n", KeyEndpoint, s.Endpoint)
	fmt.Fprintf(&b, "%s=%q\n", KeyAuthToken, s.AuthToken)
	fmt.Fprintf(&b, "%s=%q\n", KeyNodeName, s.NodeName)

	if err := afero.WriteFile(fs, path, []byte(b.String()), fileMode); err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeInternal,
			"failed to write config file", err, map[string]any{"path": path})
	}
	return nil
}

// unquote reverses the %q quoting Save applies, so values containing quotes
// or backslashes round-trip intact. Hand-written files may carry unquoted
// values, or quoted ones that are not valid Go syntax; those pass through
// with only the surrounding quotes stripped.
func unquote(v string) string {
	if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		if unquoted, err := strconv.Unquote(v); err == nil {
			return unquoted
		}
		return v[1 : len(v)-1]
	}
	return v
}
