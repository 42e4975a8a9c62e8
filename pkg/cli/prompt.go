/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/apexdata/apexctl/pkg/config"
	apperrors "github.com/apexdata/apexctl/pkg/errors"
)

// promptForMissing interactively fills in settings fields that are still
// empty. The credentials prompt reads without echo.
func promptForMissing(ctx context.Context, settings config.Settings, identityFlag string) (config.Settings, error) {
	reader := bufio.NewReader(os.Stdin)

	if settings.Endpoint == "" {
		value, err := promptLine(ctx, reader, "OTEL endpoint URL")
		if err != nil {
			return config.Settings{}, err
		}
		settings.Endpoint = value
	}

	if settings.AuthToken == "" {
		value, err := promptSecret(ctx, "Base64 basic-auth credentials")
		if err != nil {
			return config.Settings{}, err
		}
		settings.AuthToken = value
	}

	if settings.NodeName == "" {
		value, err := promptLine(ctx, reader, strings.ReplaceAll(identityFlag, "-", " "))
		if err != nil {
			return config.Settings{}, err
		}
		settings.NodeName = value
	}

	return settings, nil
}

// promptLine reads one line from stdin. Empty input is an error: every
// prompted value is required.
func promptLine(ctx context.Context, reader *bufio.Reader, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprintf(os.Stderr, "%s: ", label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to read input", err)
	}

	value := strings.TrimSpace(line)
	if value == "" {
		return "", apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("%s must not be empty", label))
	}
	return value, nil
}

// promptSecret reads one value from the terminal without echoing it.
func promptSecret(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprintf(os.Stderr, "%s: ", label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to read credentials", err)
	}

	value := strings.TrimSpace(string(raw))
	if value == "" {
		return "", apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("%s must not be empty", label))
	}
	return value, nil
}
