// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schedule contains the command that registers monthly TRIM tasks.
package schedule

import (
	"context"
	"fmt"

	"github.com/matt-FFFFFF/ssdtrim/cmd/cmdstate"
	"github.com/urfave/cli/v3"
)

const driveFlag = "drive"

// NewScheduleCmd returns the schedule command, which registers one scheduled task per drive.
func NewScheduleCmd() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Register monthly TRIM tasks",
		Description: `Register a Windows scheduled task per drive that runs TRIM once a month.
The day of the month and the account the task runs as come from the configuration
file. Without --drive, every fixed drive that is not excluded is scheduled.
Existing tasks with the same name are replaced.`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    driveFlag,
				Aliases: []string{"d"},
				Usage:   "Drive letter to schedule. Specify multiple times for multiple drives.",
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	letters := cmd.StringSlice(driveFlag)

	var day int

	err := cmdstate.Run(ctx, cmd, "Schedule monthly TRIM", false, func(ctx context.Context, st *cmdstate.State) error {
		day = st.Config.Schedule.DayOfMonth
		return st.Service.ScheduleMonthly(ctx, letters...) //nolint:wrapcheck
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "Monthly TRIM scheduled on day %d.\n", day) //nolint:errcheck

	return nil
}
