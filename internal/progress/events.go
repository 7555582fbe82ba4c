// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is one update from an operation run.
type Event struct {
	RunID      string    // Identifies the run, shared by all of its events
	Operation  string    // Human-readable operation name, e.g. "TRIM on drive E"
	Type       EventType // What happened
	Percentage int       // EventPercentage
	Message    string    // Busy message for EventStarted/EventBusy, summary otherwise
	Line       string    // EventOutput
	IsStderr   bool      // EventOutput
	ExitCode   int       // EventCompleted/EventFailed
	Err        error     // EventFailed
	Timestamp  time.Time
}

// EventType represents the type of progress event.
type EventType int

const (
	// EventStarted indicates the operation has begun; Message is the initial busy message.
	EventStarted EventType = iota
	// EventPercentage carries a new percentage for display.
	EventPercentage
	// EventBusy replaces the busy message.
	EventBusy
	// EventOutput carries one logged line.
	EventOutput
	// EventCompleted indicates successful completion.
	EventCompleted
	// EventFailed indicates the operation failed.
	EventFailed
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventPercentage:
		return "percentage"
	case EventBusy:
		return "busy"
	case EventOutput:
		return "output"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Finished reports whether the event ends a run.
func (e Event) Finished() bool {
	return e.Type == EventCompleted || e.Type == EventFailed
}

// Reporter is the interface for sending progress events.
type Reporter interface {
	// Report sends an event. Implementations must not block.
	Report(event Event)
	// Close signals that no more events will be sent.
	Close()
}

// Listener receives events from a ChannelReporter.
type Listener interface {
	// OnEvent is called for every event, from a single goroutine.
	OnEvent(event Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(event Event) {
	f(event)
}

// NullReporter discards everything.
type NullReporter struct{}

// Report implements Reporter.
func (NullReporter) Report(Event) {}

// Close implements Reporter.
func (NullReporter) Close() {}

// NewNullReporter creates a new NullReporter.
func NewNullReporter() Reporter {
	return NullReporter{}
}
