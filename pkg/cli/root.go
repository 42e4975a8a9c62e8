/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/apexdata/apexctl/pkg/logging"
)

const (
	name           = "apexctl"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Deploy and manage the ApexData telemetry agent",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Description: `apexctl deploys the ApexData telemetry agent either into a Kubernetes
cluster (as a DaemonSet) or onto a single host (as a systemd service).

Cluster path:
  apexctl cluster deploy --interactive
  apexctl cluster status
  apexctl cluster uninstall

Host path:
  apexctl service install --binary ./apexdata-agent
  apexctl service status
  apexctl service logs --follow`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
				Value:   "info",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLogger(name, version, cmd.String("log-level"))
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date)
			return ctx, nil
		},
		Commands: []*cli.Command{
			clusterCmd(),
			serviceCmd(),
		},
	}
}

// Run executes the CLI. It is called by main.main() and handles
// SIGINT/SIGTERM for graceful shutdown.
func Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd().Run(ctx, os.Args)
	logMetrics()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
