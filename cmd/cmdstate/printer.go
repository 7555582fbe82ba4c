// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cmdstate

import (
	"fmt"
	"io"

	"github.com/matt-FFFFFF/ssdtrim/internal/progress"
)

var _ progress.Listener = (*ConsolePrinter)(nil)

// ConsolePrinter writes progress events as plain text, one per line.
type ConsolePrinter struct {
	w io.Writer
}

// NewConsolePrinter returns a ConsolePrinter writing to w.
func NewConsolePrinter(w io.Writer) *ConsolePrinter {
	return &ConsolePrinter{w: w}
}

// OnEvent implements progress.Listener.
func (p *ConsolePrinter) OnEvent(event progress.Event) {
	var s string

	switch event.Type {
	case progress.EventStarted:
		s = "==> " + event.Message
	case progress.EventPercentage:
		s = fmt.Sprintf("    %d%%", event.Percentage)
	case progress.EventBusy:
		s = "    " + event.Message
	case progress.EventOutput:
		s = event.Line
	case progress.EventCompleted:
		s = fmt.Sprintf("==> %s: done", event.Operation)
	case progress.EventFailed:
		s = fmt.Sprintf("==> %s: failed: %s", event.Operation, event.Message)
	default:
		return
	}

	fmt.Fprintln(p.w, s) //nolint:errcheck
}
