/*
Copyright © 2025 ApexData Inc.
SPDX-License-Identifier: Apache-2.0
*/
package systemd

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/apexdata/apexctl/pkg/defaults"
	apperrors "github.com/apexdata/apexctl/pkg/errors"
)

// LogOptions configures Logs.
type LogOptions struct {
	// Follow streams new entries until ctx is cancelled.
	Follow bool
	// Lines is the number of trailing entries to show.
	Lines int
}

// Logs tails the agent's journal to w. Reading the journal natively requires
// cgo (sdjournal), so this shells out to journalctl, which is present on any
// host that has systemd.
func Logs(ctx context.Context, opts LogOptions, w io.Writer) error {
	args := []string{
		"-u", defaults.UnitName,
		"--no-pager",
		"-n", strconv.Itoa(opts.Lines),
	}
	if opts.Follow {
		args = append(args, "-f")
	}

	cmd := exec.CommandContext(ctx, "journalctl", args...)
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Run(); err != nil {
		// Cancellation during --follow is the expected way to stop tailing.
		if ctx.Err() != nil {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrCodeUnavailable,
			fmt.Sprintf("journalctl failed for %s", defaults.UnitName), err)
	}
	return nil
}
