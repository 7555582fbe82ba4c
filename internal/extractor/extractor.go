// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package extractor

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultThrottleInterval is the minimum time between two throttled percentages.
const DefaultThrottleInterval = 500 * time.Millisecond

// Extractor classifies output lines. It holds no per-run state and may be
// shared by any number of runs.
type Extractor struct {
	interval time.Duration
	clock    clockwork.Clock
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithThrottleInterval overrides DefaultThrottleInterval. Non-positive values are ignored.
func WithThrottleInterval(d time.Duration) Option {
	return func(x *Extractor) {
		if d > 0 {
			x.interval = d
		}
	}
}

// WithClock sets the clock used for deferred emissions.
func WithClock(c clockwork.Clock) Option {
	return func(x *Extractor) {
		if c != nil {
			x.clock = c
		}
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	x := &Extractor{
		interval: DefaultThrottleInterval,
		clock:    clockwork.NewRealClock(),
	}

	for _, opt := range opts {
		opt(x)
	}

	return x
}

// ProcessLine classifies line and returns the events to emit now. A throttled
// percentage that is not yet due is scheduled on st and reaches st's deferred
// sink later. ProcessLine never fails: unrecognised lines yield no events.
func (x *Extractor) ProcessLine(line string, st *State, now time.Time) []Event {
	return x.process(line, st, now, nil)
}

// process is ProcessLine with emit called for every event while st is still
// locked, so immediate and deferred events reach a shared sink in the order
// they were recorded.
func (x *Extractor) process(line string, st *State, now time.Time, emit Sink) []Event {
	m := classify(line)
	if m.kind == matchNone {
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return nil
	}

	var events []Event

	switch m.kind {
	case matchRetrimPercent:
		events = x.throttle(m.percentage, st, now)
	case matchRetrimTarget:
		if st.busy {
			events = []Event{{Kind: KindBusy, Drive: m.drive}}
		}
	case matchPercent:
		// The generic pattern is not throttled and does not move
		// the throttle state.
		events = []Event{{Kind: KindProgress, Percentage: m.percentage, EmittedAt: now}}
	}

	if emit != nil {
		for _, e := range events {
			emit(e)
		}
	}

	return events
}

// throttle must be called with st locked.
func (x *Extractor) throttle(percentage int, st *State, now time.Time) []Event {
	if st.hasLast && percentage == st.last {
		return nil
	}

	if !st.hasLast || now.Sub(st.lastAt) >= x.interval {
		st.cancelPendingLocked()
		st.record(percentage, now)

		return []Event{{Kind: KindProgress, Percentage: percentage, EmittedAt: now, Throttled: true}}
	}

	if st.pending != nil {
		st.pending.percentage = percentage
		return nil
	}

	pe := &pendingEmission{percentage: percentage}
	pe.timer = x.clock.AfterFunc(st.lastAt.Add(x.interval).Sub(now), func() {
		x.fire(st, pe)
	})
	st.pending = pe

	return nil
}

// fire runs when the throttle window of pe has elapsed.
func (x *Extractor) fire(st *State, pe *pendingEmission) {
	st.mu.Lock()
	defer st.mu.Unlock()

	// Replaced by an immediate emission, or the run has ended.
	if st.pending != pe || st.closed {
		return
	}

	st.pending = nil

	if st.hasLast && pe.percentage == st.last {
		return
	}

	now := x.clock.Now()
	st.record(pe.percentage, now)

	if st.deferred != nil {
		st.deferred(Event{Kind: KindProgress, Percentage: pe.percentage, EmittedAt: now, Throttled: true})
	}
}
