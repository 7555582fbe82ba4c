// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/ssdtrim/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	ctxlog.LevelVar.Set(slog.LevelDebug)

	return ctxlog.New(ctx, ctxlog.DefaultLogger)
}

type lineRecorder struct {
	mu    sync.Mutex
	lines map[Stream][]string
}

func (r *lineRecorder) handle(stream Stream, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lines == nil {
		r.lines = make(map[Stream][]string)
	}

	r.lines[stream] = append(r.lines[stream], line)
}

func (r *lineRecorder) get(stream Stream) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.lines[stream]...)
}

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("test relies on /bin/sh")
	}
}

func TestCommandRun_Success(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	cmd := &OSCommand{
		Path:  "/bin/echo",
		Args:  []string{"hello"},
		Label: "echo test",
		sigCh: make(chan os.Signal, 1),
	}

	res := cmd.Run(testContext(t))
	assert.Equal(t, 0, res.ExitCode, "expected exit code 0")
	require.NoError(t, res.Error, "unexpected error")
	assert.Equal(t, ResultStatusSuccess, res.Status)
	assert.Equal(t, "hello\n", string(res.StdOut))
	assert.False(t, res.Failed())
	assert.NoError(t, res.Err())
}

func TestCommandRun_LinesFromBothStreams(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	rec := &lineRecorder{}
	cmd := &OSCommand{
		Path:   "/bin/sh",
		Args:   []string{"-c", "echo 'VERBOSE: Retrim: 10% complete'; echo; echo '   '; echo oops >&2; printf 'crlf\\r\\n'"},
		Label:  "lines",
		OnLine: rec.handle,
		sigCh:  make(chan os.Signal, 1),
	}

	res := cmd.Run(testContext(t))
	require.NoError(t, res.Error)

	assert.Equal(t, []string{"VERBOSE: Retrim: 10% complete", "crlf"}, rec.get(StreamStdout),
		"blank lines are skipped and carriage returns trimmed")
	assert.Equal(t, []string{"oops"}, rec.get(StreamStderr))
	assert.Contains(t, string(res.StdOut), "VERBOSE: Retrim: 10% complete\n")
	assert.Equal(t, "oops\n", string(res.StdErr))
}

func TestCommandRun_Failure(t *testing.T) {
	skipOnWindows(t)

	cmd := &OSCommand{
		Path:  "/bin/sh",
		Args:  []string{"-c", "exit 1"},
		Label: "fail test",
		sigCh: make(chan os.Signal, 1),
	}

	res := cmd.Run(testContext(t))
	assert.Equal(t, 1, res.ExitCode, "expected 1 exit code")
	assert.Equal(t, ResultStatusError, res.Status)
	require.NoError(t, res.Error)
	assert.ErrorIs(t, res.Err(), ErrNonZeroExit)
}

func TestCommandRun_SuccessExitCodes(t *testing.T) {
	skipOnWindows(t)

	cmd := &OSCommand{
		Path:             "/bin/sh",
		Args:             []string{"-c", "exit 3"},
		Label:            "custom success",
		SuccessExitCodes: []int{0, 3},
		sigCh:            make(chan os.Signal, 1),
	}

	res := cmd.Run(testContext(t))
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, ResultStatusSuccess, res.Status)
}

func TestCommandRun_NotFound(t *testing.T) {
	cmd := &OSCommand{
		Path:  "/not/a/real/command",
		Label: "notfound test",
		sigCh: make(chan os.Signal, 1),
	}

	res := cmd.Run(testContext(t))

	var notFoundErr *os.PathError

	require.ErrorAs(t, res.Error, &notFoundErr, "expected PathError")
	require.ErrorIs(t, res.Error, ErrCouldNotStartProcess, "expected error to be ErrCouldNotStartProcess")
	assert.Equal(t, -1, res.ExitCode)
	assert.Equal(t, ResultStatusError, res.Status)
}

func TestCommandRun_NotInPath(t *testing.T) {
	cmd := NewOSCommand("lookup", "definitely-not-a-real-ssdtrim-tool")
	cmd.sigCh = make(chan os.Signal, 1)

	res := cmd.Run(testContext(t))
	require.ErrorIs(t, res.Error, ErrCouldNotStartProcess)
}

func TestCommandRun_EnvAndCwd(t *testing.T) {
	skipOnWindows(t)

	tempDir := t.TempDir()
	cmd := &OSCommand{
		Path:  "/bin/sh",
		Args:  []string{"-c", "echo $FOO; pwd"},
		Env:   map[string]string{"FOO": "BAR"},
		Cwd:   tempDir,
		Label: "env and cwd test",
		sigCh: make(chan os.Signal, 1),
	}

	res := cmd.Run(testContext(t))
	assert.Equal(t, 0, res.ExitCode, "expected exit code 0")
	out := string(res.StdOut)
	assert.Contains(t, out, "BAR", "expected stdout to contain 'BAR'")
	assert.Contains(t, out, tempDir, "expected stdout to contain tempDir")
}

func TestCommandRun_ContextCancelled(t *testing.T) {
	skipOnWindows(t)

	cmd := &OSCommand{
		Path:  "/bin/sleep",
		Args:  []string{"10"},
		Label: "sleep test",
		sigCh: make(chan os.Signal, 1),
	}

	ctx, cancel := context.WithTimeout(testContext(t), 100*time.Millisecond)
	defer cancel()

	res := cmd.Run(ctx)
	assert.Equal(t, -1, res.ExitCode, "expected -1 exit code for killed process")
	require.ErrorIs(t, ctx.Err(), context.DeadlineExceeded, "expected context to be done")
	require.ErrorIs(t, res.Error, ErrTimeoutExceeded, "expected error to be ErrTimeoutExceeded")
	assert.Equal(t, ResultStatusError, res.Status)
}

func TestCommandRun_SigInt(t *testing.T) {
	skipOnWindows(t)

	cmd := &OSCommand{
		Path:  "/bin/sleep",
		Args:  []string{"10"},
		Label: "sleep test",
		sigCh: make(chan os.Signal, 1),
	}
	ctx := testContext(t)

	go func() {
		time.Sleep(200 * time.Millisecond)
		cmd.sigCh <- os.Interrupt
	}()

	res := cmd.Run(ctx)
	assert.Equal(t, -1, res.ExitCode, "expected -1 exit code for sigint process")
	require.NoError(t, ctx.Err(), "expected context to be unclosed")
	require.ErrorIs(t, res.Error, ErrSignalReceived, "expected error to be ErrSignalReceived")
}

func TestOSCommand_String(t *testing.T) {
	cmd := NewOSCommand("trim", "powershell.exe", "-NoProfile", "-Command", "Optimize-Volume")
	assert.Equal(t, "powershell.exe -NoProfile -Command Optimize-Volume", cmd.String())
}
