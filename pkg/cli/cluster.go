/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/apexdata/apexctl/pkg/defaults"
	"github.com/apexdata/apexctl/pkg/k8s/agent"
	"github.com/apexdata/apexctl/pkg/k8s/client"
	"github.com/apexdata/apexctl/pkg/serializer"
)

func clusterCmd() *cli.Command {
	return &cli.Command{
		Name:  "cluster",
		Usage: "Manage the agent in a Kubernetes cluster",
		Commands: []*cli.Command{
			clusterDeployCmd(),
			clusterStatusCmd(),
			clusterUninstallCmd(),
		},
	}
}

// buildClient resolves the Kubernetes client for a cluster command. With no
// explicit --kubeconfig it goes through the shared singleton so the
// discovery-based preflight and the deploy reuse one connection.
func buildClient(cmd *cli.Command) (client.Interface, error) {
	if path := cmd.String("kubeconfig"); path != "" {
		clientset, _, err := client.Build(path)
		return clientset, err
	}
	clientset, _, err := client.Get()
	return clientset, err
}

func clusterDeployCmd() *cli.Command {
	return &cli.Command{
		Name:                  "deploy",
		EnableShellCompletion: true,
		Usage:                 "Deploy the agent DaemonSet into a cluster",
		Description: `Deploy the ApexData agent into the current Kubernetes cluster.

The deploy applies a fixed resource set: a Namespace, a Secret with the
basic-auth credentials, a ConfigMap with the endpoint and cluster identity,
a ServiceAccount with node-reader RBAC, and the agent DaemonSet. Re-running
deploy is safe: settings and image changes are rolled out in place.

Settings are taken from flags, the APEXDATA_* environment variables, or
interactive prompts (--interactive). The cluster must be reachable before
anything is applied.

# Examples

Deploy with settings from the environment:
  APEXDATA_OTEL_ENDPOINT=https://otel.example.com:4318 \
  APEXDATA_BASE64_CREDENTIALS=dXNlcjpwYXNz \
  APEXDATA_CLUSTER_NAME=prod-us-east \
  apexctl cluster deploy

Prompt for anything missing:
  apexctl cluster deploy --interactive

Render the manifests without applying:
  apexctl cluster deploy --dry-run -o manifests.yaml

Deploy and wait for every node to report ready:
  apexctl cluster deploy --wait --timeout 10m`,
		Flags: []cli.Flag{
			interactiveFlag,
			endpointFlag,
			credentialsFlag,
			&cli.StringFlag{
				Name:    "cluster-name",
				Usage:   "Cluster name reported with the telemetry",
				Sources: cli.EnvVars("APEXDATA_CLUSTER_NAME"),
			},
			&cli.StringFlag{
				Name:    "namespace",
				Usage:   "Kubernetes namespace for the agent",
				Sources: cli.EnvVars("APEXDATA_NAMESPACE"),
				Value:   defaults.Namespace,
			},
			&cli.StringFlag{
				Name:    "image",
				Usage:   "Agent container image",
				Sources: cli.EnvVars("APEXDATA_IMAGE"),
				Value:   defaults.AgentImage,
			},
			&cli.BoolFlag{
				Name:  "wait",
				Usage: "Wait for the DaemonSet rollout to complete",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for --wait",
				Value: defaults.RolloutTimeout,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Serialize the manifests instead of applying them",
			},
			outputFlag,
			formatFlag,
			kubeconfigFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			settings, err := resolveSettings(ctx, cmd, "cluster-name")
			if err != nil {
				return err
			}

			cfg := agent.Config{
				Namespace: cmd.String("namespace"),
				Name:      defaults.AgentName,
				Image:     cmd.String("image"),
				DeployID:  uuid.New().String(),
				Settings:  settings,
			}

			if cmd.Bool("dry-run") {
				return writeManifests(ctx, cmd, cfg)
			}

			clientset, err := buildClient(cmd)
			if err != nil {
				return err
			}

			preflightCtx, cancel := context.WithTimeout(ctx, defaults.ClusterPreflightTimeout)
			serverVersion, err := client.Preflight(preflightCtx, clientset)
			cancel()
			if err != nil {
				return err
			}
			slog.Info("cluster reachable", "serverVersion", serverVersion)

			deployer := agent.NewDeployer(clientset, cfg)
			if err := deployer.Deploy(ctx); err != nil {
				return err
			}

			if cmd.Bool("wait") {
				timeout := cmd.Duration("timeout")
				slog.Info("waiting for rollout", "timeout", timeout)
				if err := deployer.WaitForRollout(ctx, timeout); err != nil {
					return err
				}
			}

			fmt.Printf("Agent deployed to namespace %q (deploy ID %s)\n", cfg.Namespace, cfg.DeployID)
			return nil
		},
	}
}

// writeManifests serializes the resource set a deploy would apply.
func writeManifests(ctx context.Context, cmd *cli.Command, cfg agent.Config) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
	defer func() { _ = w.Close() }()

	deployer := agent.NewDeployer(nil, cfg)
	for _, manifest := range deployer.Manifests() {
		if err := w.Serialize(ctx, manifest); err != nil {
			return err
		}
	}
	return nil
}

func clusterStatusCmd() *cli.Command {
	return &cli.Command{
		Name:                  "status",
		EnableShellCompletion: true,
		Usage:                 "Show the agent rollout state",
		Description: `Report the state of the deployed agent: DaemonSet rollout counts
(desired/current/ready), per-pod phase and node, and recent warning events.

# Examples

Human-readable table:
  apexctl cluster status -t table

Machine-readable, to a file:
  apexctl cluster status -t json -o status.json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "namespace",
				Usage:   "Kubernetes namespace of the agent",
				Sources: cli.EnvVars("APEXDATA_NAMESPACE"),
				Value:   defaults.Namespace,
			},
			outputFlag,
			formatFlag,
			kubeconfigFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			clientset, err := buildClient(cmd)
			if err != nil {
				return err
			}

			deployer := agent.NewDeployer(clientset, agent.Config{
				Namespace: cmd.String("namespace"),
				Name:      defaults.AgentName,
			})

			statusCtx, cancel := context.WithTimeout(ctx, defaults.ClusterDeployTimeout)
			defer cancel()

			status, err := deployer.Status(statusCtx)
			if err != nil {
				return err
			}

			w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
			defer func() { _ = w.Close() }()
			return w.Serialize(ctx, status)
		},
	}
}

func clusterUninstallCmd() *cli.Command {
	return &cli.Command{
		Name:                  "uninstall",
		EnableShellCompletion: true,
		Usage:                 "Remove the agent from the cluster",
		Description: `Delete the agent resource set. Resources that are already gone are
skipped, so uninstall is safe to re-run.

# Examples

Remove everything including the namespace:
  apexctl cluster uninstall

Keep the namespace (e.g. it is shared with other workloads):
  apexctl cluster uninstall --keep-namespace`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "namespace",
				Usage:   "Kubernetes namespace of the agent",
				Sources: cli.EnvVars("APEXDATA_NAMESPACE"),
				Value:   defaults.Namespace,
			},
			&cli.BoolFlag{
				Name:  "keep-namespace",
				Usage: "Leave the namespace behind",
			},
			kubeconfigFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			clientset, err := buildClient(cmd)
			if err != nil {
				return err
			}

			deployer := agent.NewDeployer(clientset, agent.Config{
				Namespace: cmd.String("namespace"),
				Name:      defaults.AgentName,
			})

			start := time.Now()
			err = deployer.Uninstall(ctx, agent.UninstallOptions{
				KeepNamespace: cmd.Bool("keep-namespace"),
			})
			if err != nil {
				return err
			}

			slog.Info("agent uninstalled", "duration", time.Since(start).Round(time.Millisecond))
			fmt.Println("Agent removed from cluster")
			return nil
		},
	}
}
