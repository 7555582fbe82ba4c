// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package trim contains the command that runs TRIM on one or all drives.
package trim

import (
	"context"
	"errors"

	"github.com/matt-FFFFFF/ssdtrim/cmd/cmdstate"
	"github.com/matt-FFFFFF/ssdtrim/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const (
	driveFlag  = "drive"
	allFlag    = "all"
	cliExitStr = ""
)

var (
	// ErrNoTarget is returned when neither --drive nor --all is given.
	ErrNoTarget = errors.New("specify --drive or --all")
	// ErrConflictingTarget is returned when both --drive and --all are given.
	ErrConflictingTarget = errors.New("--drive and --all cannot be used together")
)

// NewTrimCmd returns the trim command, which runs Optimize-Volume -ReTrim.
func NewTrimCmd() *cli.Command {
	return &cli.Command{
		Name:  "trim",
		Usage: "Run TRIM on a drive, or on all fixed drives",
		Description: `Run Optimize-Volume -ReTrim on the given drive, or on every fixed drive that
is not excluded by the configuration file. Drives are processed one at a time and
progress is shown as it is reported.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     driveFlag,
				Aliases:  []string{"d"},
				Usage:    `Drive letter to trim, e.g. "E", "E:" or "E:\"`,
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:        allFlag,
				Aliases:     []string{"a"},
				Usage:       "Trim every fixed drive that is not excluded",
				Value:       false,
				DefaultText: "false",
				OnlyOnce:    true,
			},
			cmdstate.TUIBoolFlag(),
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	letter := cmd.String(driveFlag)
	all := cmd.Bool(allFlag)

	if err := checkTarget(letter, all); err != nil {
		ctxlog.Logger(ctx).Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	title := "TRIM on drive " + letter
	if all {
		title = "TRIM on all drives"
	}

	return cmdstate.Run(ctx, cmd, title, cmd.Bool(cmdstate.TUIFlag), func(ctx context.Context, st *cmdstate.State) error {
		if all {
			return st.Service.TrimAll(ctx) //nolint:wrapcheck
		}

		return st.Service.TrimDrive(ctx, letter) //nolint:wrapcheck
	})
}

func checkTarget(letter string, all bool) error {
	switch {
	case letter != "" && all:
		return ErrConflictingTarget
	case letter == "" && !all:
		return ErrNoTarget
	default:
		return nil
	}
}
