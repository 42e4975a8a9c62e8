/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/apexdata/apexctl/pkg/config"
	"github.com/apexdata/apexctl/pkg/serializer"
)

// Shared flags used by multiple commands.
var (
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output file path (default: stdout)",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage:   fmt.Sprintf("Output format: %s", strings.Join(serializer.SupportedFormats(), ", ")),
		Value:   string(serializer.FormatYAML),
	}

	kubeconfigFlag = &cli.StringFlag{
		Name:    "kubeconfig",
		Usage:   "Path to kubeconfig file (default: KUBECONFIG env var or ~/.kube/config)",
		Sources: cli.EnvVars("KUBECONFIG"),
	}

	interactiveFlag = &cli.BoolFlag{
		Name:    "interactive",
		Aliases: []string{"i"},
		Usage:   "Prompt for missing settings instead of failing",
	}

	endpointFlag = &cli.StringFlag{
		Name:    "endpoint",
		Usage:   "OTLP collector URL the agent ships telemetry to",
		Sources: cli.EnvVars("APEXDATA_OTEL_ENDPOINT"),
	}

	credentialsFlag = &cli.StringFlag{
		Name:    "credentials",
		Usage:   "Base64-encoded basic-auth credentials",
		Sources: cli.EnvVars("APEXDATA_BASE64_CREDENTIALS"),
	}
)

// parseOutputFormat extracts and validates the output format from CLI flags.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	outFormat := serializer.Format(cmd.String("format"))
	if outFormat.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q, valid formats are: %s",
			outFormat, strings.Join(serializer.SupportedFormats(), ", "))
	}
	return outFormat, nil
}

// resolveSettings layers flag values over APEXDATA_* environment variables,
// prompts for anything still missing when interactive mode is on, and
// validates the result. identityFlag names the flag carrying the reporting
// identity ("cluster-name" or "node-name").
func resolveSettings(ctx context.Context, cmd *cli.Command, identityFlag string) (config.Settings, error) {
	fromEnv, err := config.FromEnvironment()
	if err != nil {
		return config.Settings{}, err
	}

	settings := config.Settings{
		Endpoint:  cmd.String("endpoint"),
		AuthToken: cmd.String("credentials"),
		NodeName:  cmd.String(identityFlag),
	}.Merge(fromEnv)

	if cmd.Bool("interactive") {
		settings, err = promptForMissing(ctx, settings, identityFlag)
		if err != nil {
			return config.Settings{}, err
		}
	}

	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}
