// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/matt-FFFFFF/ssdtrim/internal/ctxlog"
	"github.com/matt-FFFFFF/ssdtrim/internal/signalbroker"
)

const (
	maxBufferSize  = 8 * 1024 * 1024  // 8MB
	maxLineSize    = 1024 * 1024      // 1MB
	tickerInterval = 10 * time.Second // Interval for the process watchdog ticker
)

var (
	// ErrBufferOverflow is returned when the output exceeds the max size.
	ErrBufferOverflow = fmt.Errorf("output exceeds max size of %d bytes", maxBufferSize)
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToReadBuffer is returned when the buffer from the operating system pipe could not be read.
	ErrFailedToReadBuffer = errors.New("failed to read buffer")
	// ErrTimeoutExceeded is returned when the command exceeds the context deadline.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrSignalReceived is returned when a operating system signal is received by the child process.
	ErrSignalReceived = errors.New("signal received")
	// ErrDuplicateSignalReceived is returned when a duplicate signal is received, forcing process termination.
	ErrDuplicateSignalReceived = errors.New("duplicate signal received, process forcefully terminated")
)

// Stream identifies which pipe a line was read from.
type Stream int

const (
	// StreamStdout is the child's standard output.
	StreamStdout Stream = iota
	// StreamStderr is the child's standard error.
	StreamStderr
)

// String implements fmt.Stringer.
func (s Stream) String() string {
	if s == StreamStderr {
		return "stderr"
	}

	return "stdout"
}

// LineHandler receives every non-blank line as soon as it is read.
// It is called concurrently from the stdout and stderr readers.
type LineHandler func(stream Stream, line string)

// OSCommand is a single operating system process.
type OSCommand struct {
	Label            string            // Label used in logs and results.
	Path             string            // Executable, either a full path or a name looked up in PATH.
	Args             []string          // Arguments to the command, do not include the executable name itself.
	Env              map[string]string // Extra environment variables.
	Cwd              string            // Working directory, empty for the current one.
	SuccessExitCodes []int             // Exit codes that indicate success, defaults to 0.
	OnLine           LineHandler       // Optional line callback.
	sigCh            chan os.Signal    // Channel to receive signals, allows mocking in test.
}

// NewOSCommand returns a command with the given label, executable and arguments.
func NewOSCommand(label, path string, args ...string) *OSCommand {
	return &OSCommand{
		Label: label,
		Path:  path,
		Args:  args,
	}
}

// String returns the command line as it would be typed.
func (c *OSCommand) String() string {
	return strings.Join(slices.Concat([]string{c.Path}, c.Args), " ")
}

// Run starts the process and blocks until it exits and both pipes are drained.
func (c *OSCommand) Run(ctx context.Context) *Result {
	logger := ctxlog.Logger(ctx).
		With("runnableType", "OSCommand").
		With("label", c.Label)

	logger.Debug("command info", "path", c.Path, "cwd", c.Cwd, "args", c.Args)

	successCodes := c.SuccessExitCodes
	if successCodes == nil {
		successCodes = []int{0}
	}

	sigCh := c.sigCh
	if sigCh == nil {
		sigCh = signalbroker.New(ctx)
		defer signalbroker.Stop(sigCh)
	}

	res := &Result{
		Label: c.Label,
	}

	path, err := resolvePath(c.Path)
	if err != nil {
		res.Error = errors.Join(ErrCouldNotStartProcess, err)
		res.ExitCode = -1
		res.Status = ResultStatusError

		return res
	}

	env := os.Environ()

	for k, v := range c.Env {
		logger.Debug("adding environment variable", "key", k, "value", v)
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		res.Error = errors.Join(ErrFailedToCreatePipe, err)
		res.ExitCode = -1
		res.Status = ResultStatusError

		return res
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		_ = rOut.Close()
		_ = wOut.Close()
		res.Error = errors.Join(ErrFailedToCreatePipe, err)
		res.ExitCode = -1
		res.Status = ResultStatusError

		return res
	}

	defer rOut.Close() //nolint:errcheck
	defer rErr.Close() //nolint:errcheck

	args := slices.Concat([]string{filepath.Base(path)}, c.Args)

	logger.Debug("starting process")

	startTime := time.Now()

	ps, err := os.StartProcess(path, args, &os.ProcAttr{
		Dir:   c.Cwd,
		Env:   env,
		Files: []*os.File{nil, wOut, wErr},
	})
	if err != nil {
		_ = wOut.Close()
		_ = wErr.Close()
		res.Error = errors.Join(ErrCouldNotStartProcess, err)
		res.ExitCode = -1
		res.Status = ResultStatusError

		return res
	}

	logger.Debug("process started", "pid", ps.Pid)

	var (
		outBuf, errBuf bytes.Buffer
		outErr, errErr error
		readers        sync.WaitGroup
	)

	readers.Add(2) //nolint:mnd

	go func() {
		defer readers.Done()

		outErr = c.drain(rOut, StreamStdout, &outBuf)
	}()

	go func() {
		defer readers.Done()

		errErr = c.drain(rErr, StreamStderr, &errBuf)
	}()

	done := make(chan struct{})
	// This allows us to track why the processes was killed.
	wasKilled := make(chan error, 1)

	// watchdog for process signals and context cancellation
	go func() {
		signalCount := make(map[os.Signal]struct{})

		ticker := time.NewTicker(tickerInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				logger.Debug("still running", "elapsed", time.Since(startTime).Round(time.Second))

			case s := <-sigCh:
				// is this the second signal received of this type?
				if _, ok := signalCount[s]; ok {
					logger.Info("received duplicate signal, killing process", "signal", s.String())
					killPs(ctx, ps)
					notify(wasKilled, ErrDuplicateSignalReceived)

					return
				}

				signalCount[s] = struct{}{}

				logger.Info("received signal", "signal", s.String())

				if err := ps.Signal(s); err != nil {
					logger.Info("failed to send signal", "signal", s.String(), "error", err)
				}

				notify(wasKilled, ErrSignalReceived)

			case <-ctx.Done():
				logger.Info("context done, killing process")
				killPs(ctx, ps)
				notify(wasKilled, ErrTimeoutExceeded)

				return

			case <-done:
				return
			}
		}
	}()

	logger.Debug("waiting for process to finish")

	state, psErr := ps.Wait()

	close(done)

	_ = wOut.Close()
	_ = wErr.Close()

	readers.Wait()

	res.Duration = time.Since(startTime)
	res.StdOut = outBuf.Bytes()
	res.StdErr = errBuf.Bytes()
	res.Error = psErr

	if state != nil {
		res.ExitCode = state.ExitCode()
	}

	logger.Debug("process finished", "exitCode", res.ExitCode, "duration", res.Duration)

	select {
	case e := <-wasKilled:
		res.Error = errors.Join(res.Error, e)
		res.ExitCode = -1
	default:
	}

	res.Error = errors.Join(res.Error, outErr, errErr)

	switch {
	case res.Error == nil && slices.Contains(successCodes, res.ExitCode):
		logger.Debug("process exit code indicates success", "exitCode", res.ExitCode)
		res.Status = ResultStatusSuccess
	default:
		logger.Debug("process error", "error", res.Error, "exitCode", res.ExitCode)

		if res.ExitCode == 0 {
			res.ExitCode = -1 // If exit code is 0 but there is an error, set exit code to -1
		}

		res.Status = ResultStatusError
	}

	return res
}

// drain reads r line by line until EOF, buffering up to maxBufferSize bytes.
func (c *OSCommand) drain(r io.Reader, stream Stream, buf *bytes.Buffer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize) //nolint:mnd

	overflow := false

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")

		if buf.Len()+len(line)+1 <= maxBufferSize {
			buf.WriteString(line)
			buf.WriteByte('\n')
		} else {
			overflow = true
		}

		if strings.TrimSpace(line) == "" || c.OnLine == nil {
			continue
		}

		c.OnLine(stream, line)
	}

	if err := sc.Err(); err != nil {
		// Keep the pipe empty so the child never blocks on a full buffer.
		_, _ = io.Copy(io.Discard, r)

		return errors.Join(ErrFailedToReadBuffer, err)
	}

	if overflow {
		return ErrBufferOverflow
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.ContainsAny(path, `/\`) {
		return path, nil
	}

	return exec.LookPath(path) //nolint:wrapcheck
}

func notify(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// killPs kills the process.
func killPs(ctx context.Context, ps *os.Process) {
	if err := ps.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Logger(ctx).Debug("process already done", "pid", ps.Pid)
			return
		}

		ctxlog.Logger(ctx).Error("process kill error", "pid", ps.Pid, "error", err)

		return
	}

	ctxlog.Logger(ctx).Info("process killed", "pid", ps.Pid)
}
