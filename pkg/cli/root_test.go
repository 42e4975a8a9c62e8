/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func commandNames(cmds []*cli.Command) []string {
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name)
	}
	return names
}

func findCommand(t *testing.T, parent *cli.Command, name string) *cli.Command {
	t.Helper()
	for _, c := range parent.Commands {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("command %q not found under %q", name, parent.Name)
	return nil
}

func TestRootCommandTree(t *testing.T) {
	root := rootCmd()
	assert.Equal(t, "apexctl", root.Name)
	assert.ElementsMatch(t, []string{"cluster", "service"}, commandNames(root.Commands))

	cluster := findCommand(t, root, "cluster")
	assert.ElementsMatch(t,
		[]string{"deploy", "status", "uninstall"},
		commandNames(cluster.Commands))

	service := findCommand(t, root, "service")
	assert.ElementsMatch(t,
		[]string{"install", "uninstall", "start", "stop", "restart", "status", "logs", "config", "update"},
		commandNames(service.Commands))

	cfg := findCommand(t, service, "config")
	assert.ElementsMatch(t, []string{"get", "set"}, commandNames(cfg.Commands))
}

func TestDeployFlagDefaults(t *testing.T) {
	deploy := findCommand(t, rootCmd(), "cluster")
	deploy = findCommand(t, deploy, "deploy")

	flags := make(map[string]cli.Flag)
	for _, f := range deploy.Flags {
		flags[f.Names()[0]] = f
	}

	ns, ok := flags["namespace"].(*cli.StringFlag)
	require.True(t, ok)
	assert.Equal(t, "apexdata", ns.Value)

	img, ok := flags["image"].(*cli.StringFlag)
	require.True(t, ok)
	assert.Contains(t, img.Value, "apexdata-agent")

	// -i alias for interactive mode
	interactive, ok := flags["interactive"].(*cli.BoolFlag)
	require.True(t, ok)
	assert.Contains(t, interactive.Aliases, "i")
}

func TestConfigGetArgValidation(t *testing.T) {
	root := rootCmd()
	err := root.Run(t.Context(), []string{"apexctl", "service", "config", "get", "ENDPOINT", "EXTRA"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most one")
}

func TestConfigSetArgValidation(t *testing.T) {
	root := rootCmd()
	err := root.Run(t.Context(), []string{"apexctl", "service", "config", "set", "ENDPOINT"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KEY VALUE")
}

func TestUpdateRequiresExactlyOneSource(t *testing.T) {
	root := rootCmd()
	err := root.Run(t.Context(), []string{"apexctl", "service", "update"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--binary or --from")
}
