// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package extractor

import (
	"strconv"
	"time"
)

// Kind discriminates the two event shapes.
type Kind int

const (
	// KindProgress carries a percentage.
	KindProgress Kind = iota
	// KindBusy carries the drive currently being trimmed.
	KindBusy
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindProgress:
		return "progress"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Event is either a progress update or a busy-message update.
type Event struct {
	Kind       Kind
	Percentage int       // KindProgress, 0-100
	Drive      string    // KindBusy, upper-case letter without the colon
	EmittedAt  time.Time // KindProgress
	Throttled  bool      // true when the event went through the throttle
}

// Display renders the event the way it is shown to the user: "42%" or "TRIM of drive E".
func (e Event) Display() string {
	if e.Kind == KindBusy {
		return "TRIM of drive " + e.Drive
	}

	return strconv.Itoa(e.Percentage) + "%"
}

// Sink receives events that are emitted after ProcessLine has returned.
type Sink func(Event)
