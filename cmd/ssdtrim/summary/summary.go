// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package summary contains the command that repairs the defrag service and
// reports the TRIM status.
package summary

import (
	"context"
	"fmt"

	"github.com/matt-FFFFFF/ssdtrim/cmd/cmdstate"
	"github.com/matt-FFFFFF/ssdtrim/cmd/ssdtrim/status"
	"github.com/matt-FFFFFF/ssdtrim/internal/maintenance"
	"github.com/urfave/cli/v3"
)

// NewSummaryCmd returns the summary command, which runs repair followed by status.
func NewSummaryCmd() *cli.Command {
	return &cli.Command{
		Name:   "summary",
		Usage:  "Repair the defrag service and show the TRIM status",
		Flags:  []cli.Flag{cmdstate.TUIBoolFlag()},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	var sum maintenance.Summary

	err := cmdstate.Run(ctx, cmd, "Status summary", cmd.Bool(cmdstate.TUIFlag), func(ctx context.Context, st *cmdstate.State) error {
		var err error

		sum, err = st.Service.StatusSummary(ctx)

		return err //nolint:wrapcheck
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "defragsvc: %s\n", sum.DefragService) //nolint:errcheck
	status.WriteTrimStatus(cmd.Root().Writer, sum.Trim)

	return nil
}
