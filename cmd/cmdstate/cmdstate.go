// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdstate builds the state shared by every sub-command: the
// configuration, the operation log and the maintenance service.
// ServiceOptions is global so that tests can replace the process executor.
package cmdstate

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/ssdtrim/internal/config"
	"github.com/matt-FFFFFF/ssdtrim/internal/ctxlog"
	"github.com/matt-FFFFFF/ssdtrim/internal/maintenance"
	"github.com/matt-FFFFFF/ssdtrim/internal/oplog"
	"github.com/matt-FFFFFF/ssdtrim/internal/progress"
	"github.com/matt-FFFFFF/ssdtrim/internal/tui"
	"github.com/urfave/cli/v3"
)

const (
	// ConfigFlag is the name of the global configuration flag.
	ConfigFlag = "config"
	// LogLevelFlag is the name of the global log level flag.
	LogLevelFlag = "log-level"
	// TUIFlag is the name of the flag selecting the terminal UI.
	TUIFlag = "tui"

	consoleBufferSize = 256
	cliExitStr        = ""
)

// ErrInvalidLogLevel is returned when --log-level is not a known level.
var ErrInvalidLogLevel = errors.New("invalid log level")

// ServiceOptions are applied to every Service built by Load.
var ServiceOptions []maintenance.Option

// GlobalFlags returns the flags of the root command. Flags hold parse
// state, so every command tree gets its own.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    ConfigFlag,
			Aliases: []string{"c"},
			Usage: "Specify the URL of the YAML configuration file. " +
				"Supports Hashicorp's go-getter syntax for fetching files from various sources. " +
				"Defaults are used when not set.",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:     LogLevelFlag,
			Usage:    "Set the log level (debug, info, warn, error). Overrides the configuration file.",
			OnlyOnce: true,
		},
	}
}

// TUIBoolFlag returns the --tui flag for commands that support the terminal UI.
func TUIBoolFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:        TUIFlag,
		Aliases:     []string{"t", "interactive"},
		Usage:       "Run with interactive Terminal User Interface (TUI) showing real-time progress",
		Value:       false,
		DefaultText: "false",
		OnlyOnce:    true,
	}
}

// State is what an Operation works with.
type State struct {
	Config  *config.Config
	Log     *oplog.Log
	Service *maintenance.Service
}

// Operation is the body of a sub-command.
type Operation func(ctx context.Context, st *State) error

// Load reads the configuration named by the global flags, applies the log
// level and builds the operation log and the maintenance service.
func Load(ctx context.Context, cmd *cli.Command, opts ...maintenance.Option) (*State, error) {
	cfg, err := config.Load(ctx, cmd.String(ConfigFlag))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	level := cfg.LogLevel
	if l := cmd.String(LogLevelFlag); l != "" {
		level = l
	}

	if level != "" {
		lvl, ok := ctxlog.ParseLevel(level)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidLogLevel, level)
		}

		ctxlog.LevelVar.Set(lvl)
	}

	log, err := oplog.New(cfg.BaseFolder)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	ctxlog.Debug(ctx, "operation log ready", "path", log.Path())

	svc := maintenance.New(cfg, log, append(append([]maintenance.Option(nil), ServiceOptions...), opts...)...)

	return &State{
		Config:  cfg,
		Log:     log,
		Service: svc,
	}, nil
}

// Run loads the state and executes op, printing progress events to the
// command's writer, or showing them in the terminal UI when useTUI is set.
// A failure is logged and returned as a cli exit error.
func Run(ctx context.Context, cmd *cli.Command, title string, useTUI bool, op Operation) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug(fmt.Sprintf("Running %s command", cmd.Name))

	var err error

	switch useTUI {
	case true:
		logger.Info("Starting interactive TUI mode...")

		buf := new(bytes.Buffer)
		tuiCtx := ctxlog.NewForTUI(ctx, buf)

		runner := tui.NewRunner(title)

		err = runner.Run(tuiCtx, func(ctx context.Context, reporter progress.Reporter) error {
			st, err := Load(ctx, cmd, maintenance.WithReporter(reporter))
			if err != nil {
				return err
			}

			return op(ctx, st)
		})

		buf.WriteTo(cmd.Root().ErrWriter) //nolint:errcheck
	default:
		reporter := progress.NewChannelReporter(ctx, consoleBufferSize)
		reporter.Listen(NewConsolePrinter(cmd.Root().Writer))

		var st *State

		st, err = Load(ctx, cmd, maintenance.WithReporter(reporter))
		if err == nil {
			err = op(ctx, st)
		}

		reporter.Close()
	}

	if err != nil {
		logger.Error(fmt.Sprintf("%s failed: %s", title, err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}
