// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package maintenance

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/matt-FFFFFF/ssdtrim/internal/config"
	"github.com/matt-FFFFFF/ssdtrim/internal/ctxlog"
	"github.com/matt-FFFFFF/ssdtrim/internal/drive"
	"github.com/matt-FFFFFF/ssdtrim/internal/extractor"
	"github.com/matt-FFFFFF/ssdtrim/internal/oplog"
	"github.com/matt-FFFFFF/ssdtrim/internal/progress"
	"github.com/matt-FFFFFF/ssdtrim/internal/runbatch"
	"github.com/spf13/afero"
)

var (
	// ErrInvalidDriveLetter is returned when a drive letter cannot be normalised.
	ErrInvalidDriveLetter = drive.ErrInvalidLetter
	// ErrOperationInProgress is returned when a run is started while another is active.
	ErrOperationInProgress = errors.New("another operation is in progress")
)

// Service runs maintenance operations, one at a time.
type Service struct {
	cfg      *config.Config
	log      *oplog.Log
	exec     runbatch.Executor
	x        *extractor.Extractor
	reporter progress.Reporter
	clock    clockwork.Clock
	fs       afero.Fs

	mu      sync.Mutex
	current *run
}

// Option configures a Service.
type Option func(*Service)

// WithExecutor replaces the executor used to start processes.
func WithExecutor(e runbatch.Executor) Option {
	return func(s *Service) {
		if e != nil {
			s.exec = e
		}
	}
}

// WithReporter sets where progress events are sent.
func WithReporter(r progress.Reporter) Option {
	return func(s *Service) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithExtractor replaces the extractor built from the configuration.
func WithExtractor(x *extractor.Extractor) Option {
	return func(s *Service) {
		if x != nil {
			s.x = x
		}
	}
}

// WithClock sets the clock used while waiting for the defrag service.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// New returns a Service that logs to log. Every line written to log while
// a run is active is reported as output and fed to the run's extractor session.
func New(cfg *config.Config, log *oplog.Log, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		log:      log,
		exec:     runbatch.DefaultExecutor,
		x:        extractor.New(extractor.WithThrottleInterval(cfg.ThrottleInterval)),
		reporter: progress.NewNullReporter(),
		clock:    clockwork.NewRealClock(),
		fs:       FsFactory(),
	}

	for _, opt := range opts {
		opt(s)
	}

	log.AddListener(s.onLine)

	return s
}

// run is one operation from the user's point of view.
type run struct {
	id        string
	operation string

	mu      sync.Mutex
	session *extractor.Session
}

// begin starts a run and reports its busy message.
func (s *Service) begin(ctx context.Context, operation, busyMessage string) (*run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return nil, ErrOperationInProgress
	}

	r := &run{
		id:        uuid.NewString(),
		operation: operation,
	}
	r.session = s.newSession(r)
	s.current = r

	ctxlog.Debug(ctx, "run started", "runID", r.id, "operation", operation)

	s.reporter.Report(progress.Event{
		RunID:     r.id,
		Operation: operation,
		Type:      progress.EventStarted,
		Message:   busyMessage,
		Timestamp: s.clock.Now(),
	})

	return r, nil
}

// end closes the run's session and reports how it finished.
func (s *Service) end(ctx context.Context, r *run, err error) {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	r.mu.Lock()
	r.session.Close()
	r.mu.Unlock()

	ev := progress.Event{
		RunID:     r.id,
		Operation: r.operation,
		Type:      progress.EventCompleted,
		Timestamp: s.clock.Now(),
	}

	if err != nil {
		ev.Type = progress.EventFailed
		ev.Err = err
		ev.Message = err.Error()
		ctxlog.Debug(ctx, "run failed", "runID", r.id, "operation", r.operation, "error", err)
	} else {
		ctxlog.Debug(ctx, "run completed", "runID", r.id, "operation", r.operation)
	}

	s.reporter.Report(ev)
}

// do wraps fn in a run.
func (s *Service) do(ctx context.Context, operation, busyMessage string, fn func() error) error {
	r, err := s.begin(ctx, operation, busyMessage)
	if err != nil {
		return err
	}

	err = fn()
	s.end(ctx, r, err)

	return err
}

// newSession creates a busy extractor session whose events become progress events of r.
func (s *Service) newSession(r *run) *extractor.Session {
	sess := s.x.NewSession(func(e extractor.Event) {
		ev := progress.Event{
			RunID:     r.id,
			Operation: r.operation,
			Timestamp: s.clock.Now(),
		}

		switch e.Kind {
		case extractor.KindBusy:
			ev.Type = progress.EventBusy
			ev.Message = e.Display()
		default:
			ev.Type = progress.EventPercentage
			ev.Percentage = e.Percentage
		}

		s.reporter.Report(ev)
	})
	sess.SetBusy(true)

	return sess
}

// resetSession starts a fresh throttle state, used between drives of one run.
func (s *Service) resetSession(r *run) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session.Close()
	r.session = s.newSession(r)
}

// onLine is the operation log listener.
func (s *Service) onLine(line string) {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()

	if r == nil {
		return
	}

	s.reporter.Report(progress.Event{
		RunID:     r.id,
		Operation: r.operation,
		Type:      progress.EventOutput,
		Line:      line,
		Timestamp: s.clock.Now(),
	})

	r.mu.Lock()
	sess := r.session
	r.mu.Unlock()

	sess.Feed(line)
}

// logf writes a formatted message to the operation log.
func (s *Service) logf(ctx context.Context, format string, args ...any) {
	s.log.Logf(ctx, format, args...)
}

// logResults writes one summary line per result to the operation log.
func (s *Service) logResults(ctx context.Context, results runbatch.Results) {
	if len(results) == 0 {
		return
	}

	var buf strings.Builder
	if err := results.WriteText(&buf); err != nil {
		ctxlog.Logger(ctx).Warn("could not format results", "error", err)
		return
	}

	for line := range strings.Lines(buf.String()) {
		s.log.Log(ctx, strings.TrimRight(line, "\r\n"))
	}

	if results.HasError() {
		failed := 0

		for _, res := range results {
			if res.Failed() {
				failed++
			}
		}

		s.logf(ctx, "%d of %d steps failed.", failed, len(results))
	}
}

// command builds an OSCommand whose non-blank output lines go to the operation log.
func (s *Service) command(ctx context.Context, label, path string, args ...string) *runbatch.OSCommand {
	cmd := runbatch.NewOSCommand(label, path, args...)
	cmd.OnLine = func(_ runbatch.Stream, line string) {
		s.log.Log(ctx, line)
	}

	return cmd
}
