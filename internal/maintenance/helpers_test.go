// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package maintenance

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/matt-FFFFFF/ssdtrim/internal/config"
	"github.com/matt-FFFFFF/ssdtrim/internal/extractor"
	"github.com/matt-FFFFFF/ssdtrim/internal/oplog"
	"github.com/matt-FFFFFF/ssdtrim/internal/progress"
	"github.com/matt-FFFFFF/ssdtrim/internal/runbatch"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// response is one scripted process outcome.
type response struct {
	stdout []string
	stderr []string
	exit   int
	err    error
}

type script struct {
	prefix    string
	responses []response
}

// fakeExecutor replays scripted responses for commands whose command line
// starts with a registered prefix. The last response of a script repeats.
type fakeExecutor struct {
	t       *testing.T
	mu      sync.Mutex
	scripts []*script
	calls   []string
}

func newFakeExecutor(t *testing.T) *fakeExecutor {
	t.Helper()
	return &fakeExecutor{t: t}
}

func (f *fakeExecutor) on(prefix string, responses ...response) *fakeExecutor {
	f.scripts = append(f.scripts, &script{prefix: prefix, responses: responses})
	return f
}

func (f *fakeExecutor) Execute(_ context.Context, cmd *runbatch.OSCommand) *runbatch.Result {
	f.mu.Lock()

	line := cmd.String()
	f.calls = append(f.calls, line)

	var resp *response

	for _, s := range f.scripts {
		if !strings.HasPrefix(line, s.prefix) {
			continue
		}

		r := s.responses[0]
		if len(s.responses) > 1 {
			s.responses = s.responses[1:]
		}

		resp = &r

		break
	}

	f.mu.Unlock()

	if resp == nil {
		f.t.Errorf("unexpected command: %s", line)
		return &runbatch.Result{
			Label:    cmd.Label,
			ExitCode: -1,
			Error:    runbatch.ErrCouldNotStartProcess,
			Status:   runbatch.ResultStatusError,
		}
	}

	emit := func(stream runbatch.Stream, lines []string) {
		for _, l := range lines {
			if cmd.OnLine != nil && strings.TrimSpace(l) != "" {
				cmd.OnLine(stream, l)
			}
		}
	}

	emit(runbatch.StreamStdout, resp.stdout)
	emit(runbatch.StreamStderr, resp.stderr)

	res := &runbatch.Result{
		Label:    cmd.Label,
		ExitCode: resp.exit,
		Error:    resp.err,
		Status:   runbatch.ResultStatusSuccess,
		StdOut:   []byte(joinLines(resp.stdout)),
		StdErr:   []byte(joinLines(resp.stderr)),
	}

	if resp.exit != 0 || resp.err != nil {
		res.Status = runbatch.ResultStatusError
	}

	return res
}

func (f *fakeExecutor) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	return strings.Join(lines, "\n") + "\n"
}

type recordingReporter struct {
	mu     sync.Mutex
	events []progress.Event
}

func (r *recordingReporter) Report(e progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
}

func (r *recordingReporter) Close() {}

func (r *recordingReporter) all() []progress.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]progress.Event(nil), r.events...)
}

func (r *recordingReporter) ofType(t progress.EventType) []progress.Event {
	var out []progress.Event

	for _, e := range r.all() {
		if e.Type == t {
			out = append(out, e)
		}
	}

	return out
}

func (r *recordingReporter) percentages() []int {
	var out []int

	for _, e := range r.ofType(progress.EventPercentage) {
		out = append(out, e.Percentage)
	}

	return out
}

func (r *recordingReporter) lines() []string {
	var out []string

	for _, e := range r.ofType(progress.EventOutput) {
		// Drop the timestamp column.
		_, msg, _ := strings.Cut(e.Line, "\t")
		out = append(out, msg)
	}

	return out
}

type harness struct {
	svc      *Service
	exec     *fakeExecutor
	reporter *recordingReporter
	fs       afero.Fs
	log      *oplog.Log
	clock    clockwork.FakeClock
}

func testConfig() *config.Config {
	return &config.Config{
		BaseFolder:       "/tools",
		ThrottleInterval: 500 * time.Millisecond,
		Schedule: config.Schedule{
			DayOfMonth: config.DefaultDayOfMonth,
			RunAs:      config.DefaultRunAs,
		},
	}
}

func newHarness(t *testing.T, cfg *config.Config, exec *fakeExecutor) *harness {
	t.Helper()

	fs := afero.NewMemMapFs()
	factory := func() afero.Fs { return fs }

	stubs := gostub.Stub(&oplog.FsFactory, factory)
	stubs.Stub(&FsFactory, factory)
	t.Cleanup(stubs.Reset)

	log, err := oplog.New(cfg.BaseFolder)
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	reporter := &recordingReporter{}

	svc := New(cfg, log,
		WithExecutor(exec),
		WithReporter(reporter),
		WithClock(clock),
		WithExtractor(extractor.New(extractor.WithClock(clock))),
	)

	return &harness{
		svc:      svc,
		exec:     exec,
		reporter: reporter,
		fs:       fs,
		log:      log,
		clock:    clock,
	}
}

func (h *harness) logFile(t *testing.T) string {
	t.Helper()

	b, err := afero.ReadFile(h.fs, h.log.Path())
	require.NoError(t, err)

	return string(b)
}
