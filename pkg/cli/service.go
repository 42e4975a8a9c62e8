/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	apperrors "github.com/apexdata/apexctl/pkg/errors"
	"github.com/apexdata/apexctl/pkg/oci"
	"github.com/apexdata/apexctl/pkg/serializer"
	"github.com/apexdata/apexctl/pkg/systemd"
)

func serviceCmd() *cli.Command {
	return &cli.Command{
		Name:  "service",
		Usage: "Manage the agent as a systemd service on this host",
		Commands: []*cli.Command{
			serviceInstallCmd(),
			serviceUninstallCmd(),
			serviceLifecycleCmd("start", "Start the agent service"),
			serviceLifecycleCmd("stop", "Stop the agent service"),
			serviceLifecycleCmd("restart", "Restart the agent service"),
			serviceStatusCmd(),
			serviceLogsCmd(),
			serviceConfigCmd(),
			serviceUpdateCmd(),
		},
	}
}

// withManager connects to systemd over D-Bus, runs fn, and closes the
// connection.
func withManager(ctx context.Context, fn func(*systemd.Manager) error) error {
	m, err := systemd.Connect(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to connect to systemd", err)
	}
	defer m.Close()
	return fn(m)
}

func serviceInstallCmd() *cli.Command {
	return &cli.Command{
		Name:                  "install",
		EnableShellCompletion: true,
		Usage:                 "Install the agent binary and systemd unit",
		Description: `Install the ApexData agent on this host: copy the binary to
/usr/local/bin/apexdata-agent, persist the settings to
/etc/apexdata-agent/config, write the systemd unit, then enable and start
the service.

Settings come from flags, the APEXDATA_* environment variables, or
interactive prompts (--interactive). Requires root.

# Examples

  apexctl service install --binary ./apexdata-agent \
    --endpoint https://otel.example.com:4318 \
    --credentials dXNlcjpwYXNz \
    --node-name edge-host-1

  apexctl service install --binary ./apexdata-agent --interactive`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "binary",
				Aliases:  []string{"b"},
				Required: true,
				Usage:    "Path to the pre-built agent binary",
			},
			interactiveFlag,
			endpointFlag,
			credentialsFlag,
			&cli.StringFlag{
				Name:    "node-name",
				Usage:   "Node name reported with the telemetry",
				Sources: cli.EnvVars("APEXDATA_CLUSTER_NAME"),
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing installation",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			settings, err := resolveSettings(ctx, cmd, "node-name")
			if err != nil {
				return err
			}

			return withManager(ctx, func(m *systemd.Manager) error {
				err := m.Install(ctx, systemd.InstallOptions{
					BinarySource: cmd.String("binary"),
					Settings:     settings,
					InstallID:    uuid.New().String(),
					Force:        cmd.Bool("force"),
				})
				if err != nil {
					return err
				}
				fmt.Println("Agent service installed and started")
				return nil
			})
		},
	}
}

func serviceUninstallCmd() *cli.Command {
	return &cli.Command{
		Name:                  "uninstall",
		EnableShellCompletion: true,
		Usage:                 "Stop the agent service and remove all installed files",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withManager(ctx, func(m *systemd.Manager) error {
				if err := m.Uninstall(ctx); err != nil {
					return err
				}
				fmt.Println("Agent service uninstalled")
				return nil
			})
		},
	}
}

func serviceLifecycleCmd(op, usage string) *cli.Command {
	return &cli.Command{
		Name:                  op,
		EnableShellCompletion: true,
		Usage:                 usage,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withManager(ctx, func(m *systemd.Manager) error {
				var err error
				switch op {
				case "start":
					err = m.Start(ctx)
				case "stop":
					err = m.Stop(ctx)
				case "restart":
					err = m.Restart(ctx)
				}
				if err != nil {
					return err
				}
				fmt.Printf("Agent service %sed\n", op)
				return nil
			})
		},
	}
}

func serviceStatusCmd() *cli.Command {
	return &cli.Command{
		Name:                  "status",
		EnableShellCompletion: true,
		Usage:                 "Show the agent service state",
		Flags: []cli.Flag{
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			return withManager(ctx, func(m *systemd.Manager) error {
				status, err := m.Status(ctx)
				if err != nil {
					return err
				}

				w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
				defer func() { _ = w.Close() }()
				return w.Serialize(ctx, status)
			})
		},
	}
}

func serviceLogsCmd() *cli.Command {
	return &cli.Command{
		Name:                  "logs",
		EnableShellCompletion: true,
		Usage:                 "Tail the agent service journal",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "follow",
				Aliases: []string{"f"},
				Usage:   "Stream new entries until interrupted",
			},
			&cli.IntFlag{
				Name:    "lines",
				Aliases: []string{"n"},
				Usage:   "Number of trailing entries to show",
				Value:   100,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return systemd.Logs(ctx, systemd.LogOptions{
				Follow: cmd.Bool("follow"),
				Lines:  int(cmd.Int("lines")),
			}, os.Stdout)
		},
	}
}

func serviceConfigCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Display or update the persisted agent settings",
		Commands: []*cli.Command{
			{
				Name:                  "get",
				EnableShellCompletion: true,
				Usage:                 "Print the persisted settings, or one value",
				ArgsUsage:             "[KEY]",
				Description: `Print the persisted settings. With a KEY argument only that value is
printed, suitable for scripting. Valid keys: ENDPOINT, AUTH_TOKEN,
NODE_NAME.

# Examples

  apexctl service config get
  apexctl service config get ENDPOINT
  apexctl service config get AUTH_TOKEN --show-secrets`,
				Flags: []cli.Flag{
					outputFlag,
					formatFlag,
					&cli.BoolFlag{
						Name:  "show-secrets",
						Usage: "Include the auth token in the output",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					args := cmd.Args()
					if args.Len() > 1 {
						return apperrors.New(apperrors.ErrCodeInvalidRequest,
							"config get takes at most one KEY argument")
					}

					outFormat, err := parseOutputFormat(cmd)
					if err != nil {
						return err
					}

					return withManager(ctx, func(m *systemd.Manager) error {
						settings, err := m.LoadSettings()
						if err != nil {
							return err
						}
						if !cmd.Bool("show-secrets") {
							settings = settings.Redacted()
						}

						if args.Len() == 1 {
							value, err := settings.Get(args.Get(0))
							if err != nil {
								return err
							}
							fmt.Println(value)
							return nil
						}

						w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
						defer func() { _ = w.Close() }()
						return w.Serialize(ctx, settings)
					})
				},
			},
			{
				Name:                  "set",
				EnableShellCompletion: true,
				Usage:                 "Update one setting and restart the service",
				ArgsUsage:             "KEY VALUE",
				Description: `Update one of the persisted settings and restart the agent so the
change takes effect. Valid keys: ENDPOINT, AUTH_TOKEN, NODE_NAME.

# Examples

  apexctl service config set ENDPOINT https://otel-2.example.com:4318
  apexctl service config set NODE_NAME edge-host-2`,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					args := cmd.Args()
					if args.Len() != 2 {
						return apperrors.New(apperrors.ErrCodeInvalidRequest,
							"config set requires exactly two arguments: KEY VALUE")
					}

					return withManager(ctx, func(m *systemd.Manager) error {
						settings, err := m.LoadSettings()
						if err != nil {
							return err
						}
						if err := settings.Set(args.Get(0), args.Get(1)); err != nil {
							return err
						}
						if err := m.UpdateSettings(ctx, settings, uuid.New().String()); err != nil {
							return err
						}
						fmt.Printf("%s updated, service restarted\n", args.Get(0))
						return nil
					})
				},
			},
		},
	}
}

func serviceUpdateCmd() *cli.Command {
	return &cli.Command{
		Name:                  "update",
		EnableShellCompletion: true,
		Usage:                 "Replace the installed agent binary and restart",
		Description: `Replace the installed agent binary, either from a local file or from
an OCI artifact, then restart the service.

# Examples

From a local build:
  apexctl service update --binary ./apexdata-agent

From a release artifact:
  apexctl service update --from oci://ghcr.io/apexdata/apexdata-agent:v1.3.0`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "binary",
				Aliases: []string{"b"},
				Usage:   "Path to the new agent binary",
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "OCI artifact reference (oci://registry/repository:tag)",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use HTTP for the registry connection",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "Skip TLS certificate verification for the registry",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			binary := cmd.String("binary")
			from := cmd.String("from")
			if (binary == "") == (from == "") {
				return apperrors.New(apperrors.ErrCodeInvalidRequest,
					"exactly one of --binary or --from is required")
			}

			sourcePath := binary
			if from != "" {
				result, err := oci.Pull(ctx, oci.PullOptions{
					Reference:   from,
					PlainHTTP:   cmd.Bool("plain-http"),
					InsecureTLS: cmd.Bool("insecure-tls"),
				})
				if err != nil {
					return err
				}
				defer result.Cleanup()
				sourcePath = result.BinaryPath
				fmt.Printf("Pulled %s (digest %s)\n", from, result.Digest)
			}

			f, err := os.Open(sourcePath)
			if err != nil {
				return apperrors.Wrap(apperrors.ErrCodeNotFound, "failed to open new binary", err)
			}
			defer func() { _ = f.Close() }()

			return withManager(ctx, func(m *systemd.Manager) error {
				if err := m.UpdateBinary(ctx, f); err != nil {
					return err
				}
				fmt.Println("Agent binary updated, service restarted")
				return nil
			})
		},
	}
}
