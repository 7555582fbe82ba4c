// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package extractor

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// State is the throttle state of one operation run. Create a new State for
// every run; it must not be shared between runs or drives.
//
// All methods are safe for concurrent use.
type State struct {
	mu       sync.Mutex
	last     int
	hasLast  bool
	lastAt   time.Time
	busy     bool
	closed   bool
	pending  *pendingEmission
	deferred Sink
}

type pendingEmission struct {
	percentage int
	timer      clockwork.Timer
}

// NewState returns an idle State. deferred receives percentages emitted by the
// throttle timer; it is called with the State locked and must not call back
// into the State or the Extractor. A nil deferred discards them.
func NewState(deferred Sink) *State {
	return &State{deferred: deferred}
}

// SetBusy marks whether the run is currently busy. Busy-message events are only
// emitted while busy.
func (s *State) SetBusy(busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.busy = busy
}

func (s *State) isBusy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.busy
}

// lastEmitted returns the last emitted throttled percentage and when it was
// emitted. ok is false while the State is idle.
func (s *State) lastEmitted() (percentage int, at time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.last, s.lastAt, s.hasLast
}

// pendingPercentage returns the percentage waiting for the throttle window to elapse.
func (s *State) pendingPercentage() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return 0, false
	}

	return s.pending.percentage, true
}

// Close cancels any pending emission. Nothing is emitted once Close returns.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelPendingLocked()
	s.closed = true
}

func (s *State) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

func (s *State) record(percentage int, at time.Time) {
	s.last = percentage
	s.lastAt = at
	s.hasLast = true
}

func (s *State) cancelPendingLocked() {
	if s.pending == nil {
		return
	}

	if s.pending.timer != nil {
		s.pending.timer.Stop()
	}

	s.pending = nil
}
