// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package drives contains the command that lists fixed drives.
package drives

import (
	"context"
	"fmt"
	"io"

	"github.com/matt-FFFFFF/ssdtrim/cmd/cmdstate"
	"github.com/matt-FFFFFF/ssdtrim/internal/maintenance"
	"github.com/urfave/cli/v3"
)

// NewDrivesCmd returns the drives command, which lists the fixed drives that have a drive letter.
func NewDrivesCmd() *cli.Command {
	return &cli.Command{
		Name:  "drives",
		Usage: "List fixed drives",
		Description: `List the fixed volumes that have a drive letter, with their file system,
label and health. These are the drives considered by "trim --all" and "schedule".`,
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	var drives []maintenance.Drive

	err := cmdstate.Run(ctx, cmd, "List drives", false, func(ctx context.Context, st *cmdstate.State) error {
		var err error

		drives, err = st.Service.ListDrives(ctx)

		return err //nolint:wrapcheck
	})
	if err != nil {
		return err
	}

	writeDrives(cmd.Root().Writer, drives)

	return nil
}

func writeDrives(w io.Writer, drives []maintenance.Drive) {
	if len(drives) == 0 {
		fmt.Fprintln(w, "No fixed drives found.") //nolint:errcheck
		return
	}

	for _, d := range drives {
		fmt.Fprintln(w, d.String()) //nolint:errcheck
	}
}
