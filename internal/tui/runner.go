// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/ssdtrim/internal/progress"
)

var _ progress.Reporter = (*TUIReporter)(nil)

// ErrTUI is returned when the terminal UI itself fails.
var ErrTUI = errors.New("terminal UI failed")

// Operation is the work shown by the TUI. It reports through reporter.
type Operation func(ctx context.Context, reporter progress.Reporter) error

// sender is the part of tea.Program used by TUIReporter.
type sender interface {
	Send(msg tea.Msg)
}

// Runner manages the TUI application and progress event integration.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *TUIReporter
	mutex    sync.Mutex
}

// TUIReporter implements progress.Reporter and forwards events to the TUI.
type TUIReporter struct {
	program sender
	closed  bool
	mutex   sync.RWMutex
}

// NewTUIReporter creates a new TUI progress reporter.
func NewTUIReporter(program sender) *TUIReporter {
	return &TUIReporter{
		program: program,
	}
}

// Report implements progress.Reporter.
func (tr *TUIReporter) Report(event progress.Event) {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	if tr.closed || tr.program == nil {
		return
	}

	tr.program.Send(ProgressEventMsg{Event: event})
}

// Close implements progress.Reporter.
func (tr *TUIReporter) Close() {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()

	tr.closed = true
}

// RunnerOption configures a Runner.
type RunnerOption func(*runnerOptions)

type runnerOptions struct {
	opts []tea.ProgramOption
}

// WithProgramOptions passes options to the underlying tea.Program.
func WithProgramOptions(opts ...tea.ProgramOption) RunnerOption {
	return func(o *runnerOptions) {
		o.opts = append(o.opts, opts...)
	}
}

// WithIO sets the program's input and output, used in tests.
func WithIO(in io.Reader, out io.Writer) RunnerOption {
	return WithProgramOptions(tea.WithInput(in), tea.WithOutput(out))
}

// NewRunner creates a new TUI runner.
func NewRunner(title string, options ...RunnerOption) *Runner {
	o := &runnerOptions{}
	for _, opt := range options {
		opt(o)
	}

	model := NewModel(title)
	program := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen()}, o.opts...)...)

	return &Runner{
		model:    model,
		program:  program,
		reporter: NewTUIReporter(program),
	}
}

// Reporter returns the progress reporter for this TUI runner.
func (r *Runner) Reporter() progress.Reporter {
	return r.reporter
}

// Model returns the model, for reading the final state.
func (r *Runner) Model() *Model {
	return r.model
}

// Run starts the TUI and executes op with progress reporting. The TUI stays
// open after op returns until the user quits. Quitting early cancels op.
// The returned error joins op's error with any TUI failure, which wraps ErrTUI.
func (r *Runner) Run(ctx context.Context, op Operation) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultChan := make(chan error, 1)

	go func() {
		defer close(resultChan)
		resultChan <- op(opCtx, r.reporter)
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	var opErr, tuiErr error

	select {
	case opErr = <-resultChan:
		// Operation completed, notify the TUI and wait for the user to exit.
		r.program.Send(RunCompletedMsg{Err: opErr})

		tuiErr = <-tuiDone

		r.reporter.Close()

	case tuiErr = <-tuiDone:
		// The user quit before the operation finished: cancel it and wait.
		r.reporter.Close()
		cancel()

		opErr = <-resultChan

	case <-ctx.Done():
		r.reporter.Close()
		r.program.Quit()

		opErr = <-resultChan

		<-tuiDone
	}

	if tuiErr != nil {
		tuiErr = errors.Join(ErrTUI, tuiErr)
	}

	return errors.Join(opErr, tuiErr)
}
