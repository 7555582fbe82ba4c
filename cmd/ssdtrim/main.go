// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the ssdtrim command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/ssdtrim"
	"github.com/matt-FFFFFF/ssdtrim/cmd/cmdstate"
	"github.com/matt-FFFFFF/ssdtrim/cmd/ssdtrim/drives"
	"github.com/matt-FFFFFF/ssdtrim/cmd/ssdtrim/repair"
	"github.com/matt-FFFFFF/ssdtrim/cmd/ssdtrim/schedule"
	"github.com/matt-FFFFFF/ssdtrim/cmd/ssdtrim/status"
	"github.com/matt-FFFFFF/ssdtrim/cmd/ssdtrim/summary"
	"github.com/matt-FFFFFF/ssdtrim/cmd/ssdtrim/trim"
	"github.com/matt-FFFFFF/ssdtrim/internal/ctxlog"
	"github.com/matt-FFFFFF/ssdtrim/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

// newRootCmd returns the root command for the CLI.
func newRootCmd() *cli.Command {
	return &cli.Command{
		Commands: []*cli.Command{
			drives.NewDrivesCmd(),
			status.NewStatusCmd(),
			trim.NewTrimCmd(),
			repair.NewRepairCmd(),
			schedule.NewScheduleCmd(),
			summary.NewSummaryCmd(),
		},
		Flags:     cmdstate.GlobalFlags(),
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Name:      "ssdtrim",
		Description: `ssdtrim keeps solid state drives trimmed on Windows. It checks whether TRIM is
enabled, repairs the Optimize Drives service, runs Optimize-Volume -ReTrim on one or
all fixed drives with live progress, and registers monthly scheduled tasks.
Every step is appended to SSD_Trim_Log.txt in the base folder.`,
		Usage:     "ssdtrim trim --all",
		Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
		Authors: []any{
			"Matt White (matt-FFFFFF)",
		},
		EnableShellCompletion: true,
		Version:               fmt.Sprintf("%s (commit: %s)", ssdtrim.Version, ssdtrim.Commit),
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)

	defer cancel()

	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, cancel)

	err := newRootCmd().Run(ctx, os.Args) // Err is handled by cli framework

	// Check if the context was cancelled (e.g., due to signals)
	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}

	ctxlog.Logger(ctx).Debug("command completed successfully")
}
