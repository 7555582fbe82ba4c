// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package trim

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/matt-FFFFFF/ssdtrim/cmd/cmdstate"
	"github.com/matt-FFFFFF/ssdtrim/internal/config"
	"github.com/matt-FFFFFF/ssdtrim/internal/ctxlog"
	"github.com/matt-FFFFFF/ssdtrim/internal/maintenance"
	"github.com/matt-FFFFFF/ssdtrim/internal/oplog"
	"github.com/matt-FFFFFF/ssdtrim/internal/runbatch"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// fakePowershell answers Get-Volume with two drives and Optimize-Volume
// with verbose retrim output. Every command line is recorded.
type fakePowershell struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakePowershell) Execute(_ context.Context, cmd *runbatch.OSCommand) *runbatch.Result {
	script := strings.Join(cmd.Args, " ")

	f.mu.Lock()
	f.calls = append(f.calls, script)
	f.mu.Unlock()

	res := &runbatch.Result{Label: cmd.Label, Status: runbatch.ResultStatusSuccess}

	switch {
	case strings.Contains(script, "Get-Volume"):
		res.StdOut = []byte(`[{"DriveLetter":"C","FileSystem":"NTFS"},{"DriveLetter":"E","FileSystem":"NTFS"}]`)
	case strings.Contains(script, "Optimize-Volume"):
		// Optimize-Volume -DriveLetter X ...
		letter := strings.Fields(cmd.Args[len(cmd.Args)-1])[2]

		for _, l := range []string{"VERBOSE: Retrim of " + letter + ":", "VERBOSE: Retrim:  100% complete."} {
			cmd.OnLine(runbatch.StreamStdout, l)
		}
	}

	return res
}

func (f *fakePowershell) optimized() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string

	for _, c := range f.calls {
		if strings.Contains(c, "Optimize-Volume") {
			out = append(out, c)
		}
	}

	return out
}

func setup(t *testing.T) *fakePowershell {
	t.Helper()

	exec := &fakePowershell{}
	fs := afero.NewMemMapFs()
	factory := func() afero.Fs { return fs }

	stubs := gostub.Stub(&oplog.FsFactory, factory)
	stubs.Stub(&config.FsFactory, factory)
	stubs.Stub(&maintenance.FsFactory, factory)
	stubs.Stub(&cmdstate.ServiceOptions, []maintenance.Option{maintenance.WithExecutor(exec)})
	t.Cleanup(stubs.Reset)

	return exec
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := new(bytes.Buffer)
	root := &cli.Command{
		Name:           "ssdtrim",
		Flags:          cmdstate.GlobalFlags(),
		Commands:       []*cli.Command{NewTrimCmd()},
		Writer:         out,
		ErrWriter:      out,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}

	ctx := ctxlog.New(context.Background(), slog.New(slog.DiscardHandler))
	err := root.Run(ctx, append([]string{"ssdtrim", "trim"}, args...))

	return out.String(), err
}

func TestCheckTarget(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, checkTarget("", false), ErrNoTarget)
	assert.ErrorIs(t, checkTarget("E", true), ErrConflictingTarget)
	assert.NoError(t, checkTarget("E", false))
	assert.NoError(t, checkTarget("", true))
}

func TestTrimCmd_Drive(t *testing.T) {
	exec := setup(t)

	out, err := run(t, "--drive", "e:")
	require.NoError(t, err)

	assert.Equal(t, []string{"-NoProfile -Command Optimize-Volume -DriveLetter E -ReTrim -Verbose"}, exec.optimized())
	assert.Contains(t, out, "==> Running TRIM on drive E...")
	assert.Contains(t, out, "    TRIM of drive E")
	assert.Contains(t, out, "    100%")
	assert.Contains(t, out, "==> TRIM on drive E: done")
}

func TestTrimCmd_All(t *testing.T) {
	exec := setup(t)

	out, err := run(t, "--all")
	require.NoError(t, err)

	assert.Len(t, exec.optimized(), 2)
	assert.Contains(t, out, "Processing drive 1 of 2...")
	assert.Contains(t, out, "Processing drive 2 of 2...")
	assert.Contains(t, out, "==> TRIM on all drives: done")
}

func TestTrimCmd_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no target"},
		{name: "both targets", args: []string{"--drive", "E", "--all"}},
		{name: "invalid letter", args: []string{"--drive", "EF"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := setup(t)

			_, err := run(t, tc.args...)

			var exitErr cli.ExitCoder
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 1, exitErr.ExitCode())
			assert.Empty(t, exec.optimized())
		})
	}
}
