// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package extractor

// Session ties an Extractor to the State of a single run and a sink that
// receives both immediate and deferred events.
type Session struct {
	x     *Extractor
	state *State
	sink  Sink
}

// NewSession starts a run with a fresh State. sink may be nil.
func (x *Extractor) NewSession(sink Sink) *Session {
	if sink == nil {
		sink = func(Event) {}
	}

	return &Session{
		x:     x,
		state: NewState(sink),
		sink:  sink,
	}
}

// Feed processes one line using the extractor's clock and forwards the
// resulting events to the sink. The events are also returned.
// Feed is safe to call from several goroutines; the sink sees events in the
// order they were recorded and must not call back into the Session.
func (s *Session) Feed(line string) []Event {
	return s.x.process(line, s.state, s.x.clock.Now(), s.sink)
}

// SetBusy sets the busy flag of the run.
func (s *Session) SetBusy(busy bool) {
	s.state.SetBusy(busy)
}

// Close ends the run and cancels any pending emission.
func (s *Session) Close() {
	s.state.Close()
}
