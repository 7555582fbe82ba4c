// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package status contains the command that checks whether TRIM is enabled.
package status

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/matt-FFFFFF/ssdtrim/cmd/cmdstate"
	"github.com/matt-FFFFFF/ssdtrim/internal/maintenance"
	"github.com/urfave/cli/v3"
)

// NewStatusCmd returns the status command, which queries the TRIM (delete notification) setting.
func NewStatusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Check whether TRIM is enabled",
		Description: `Query Windows' DisableDeleteNotify behaviour, which controls whether TRIM
commands are sent to storage, and show the result per file system.`,
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	var ts maintenance.TrimStatus

	err := cmdstate.Run(ctx, cmd, "Check TRIM status", false, func(ctx context.Context, st *cmdstate.State) error {
		var err error

		ts, err = st.Service.CheckTrimStatus(ctx)

		return err //nolint:wrapcheck
	})
	if err != nil {
		return err
	}

	WriteTrimStatus(cmd.Root().Writer, ts)

	return nil
}

// WriteTrimStatus writes one line per file system, sorted by name.
func WriteTrimStatus(w io.Writer, ts maintenance.TrimStatus) {
	if len(ts.FileSystems) == 0 {
		fmt.Fprintln(w, "TRIM status: unknown") //nolint:errcheck
		return
	}

	names := make([]string, 0, len(ts.FileSystems))
	for name := range ts.FileSystems {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		label := name
		if label == "" {
			label = "all file systems"
		}

		state := "disabled"
		if ts.FileSystems[name] {
			state = "enabled"
		}

		fmt.Fprintf(w, "TRIM for %s: %s\n", label, state) //nolint:errcheck
	}
}
