// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package repair contains the command that repairs the defrag service.
package repair

import (
	"context"
	"fmt"

	"github.com/matt-FFFFFF/ssdtrim/cmd/cmdstate"
	"github.com/matt-FFFFFF/ssdtrim/internal/maintenance"
	"github.com/urfave/cli/v3"
)

// NewRepairCmd returns the repair command, which sets defragsvc to manual start and starts it.
func NewRepairCmd() *cli.Command {
	return &cli.Command{
		Name:  "repair",
		Usage: "Repair the Optimize Drives service",
		Description: `Optimize-Volume needs the Optimize Drives service (defragsvc). This command
sets its start type to manual and starts it when it is not running.`,
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	var status maintenance.ServiceStatus

	err := cmdstate.Run(ctx, cmd, "Repair defrag service", false, func(ctx context.Context, st *cmdstate.State) error {
		var err error

		status, err = st.Service.RepairDefrag(ctx)

		return err //nolint:wrapcheck
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "defragsvc: %s\n", status) //nolint:errcheck

	return nil
}
