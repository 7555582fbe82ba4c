// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/ssdtrim/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTest = errors.New("volume not found")

func send(m *Model, events ...progress.Event) {
	for _, e := range events {
		m.Update(ProgressEventMsg{Event: e})
	}
}

func TestRunStatus_String(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "running", StatusRunning.String())
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", RunStatus(42).String())
}

func TestModel_RunLifecycle(t *testing.T) {
	m := NewModel("SSD maintenance")
	start := time.Now()

	send(m, progress.Event{
		Type:      progress.EventStarted,
		Operation: "TRIM on drive E",
		Message:   "Running TRIM on drive E...",
		Timestamp: start,
	})

	snap := m.Snapshot()
	assert.Equal(t, StatusRunning, snap.Status)
	assert.Equal(t, "Running TRIM on drive E...", snap.BusyMessage)
	assert.False(t, snap.HasPercentage)

	send(m,
		progress.Event{Type: progress.EventBusy, Message: "TRIM of drive E"},
		progress.Event{Type: progress.EventPercentage, Percentage: 42},
	)

	snap = m.Snapshot()
	assert.Equal(t, "TRIM of drive E", snap.BusyMessage)
	assert.True(t, snap.HasPercentage)
	assert.Equal(t, 42, snap.Percentage)

	view := m.View()
	assert.Contains(t, view, "SSD maintenance")
	assert.Contains(t, view, "TRIM of drive E")
	assert.Contains(t, view, "42%")

	send(m, progress.Event{Type: progress.EventCompleted, Timestamp: start.Add(1500 * time.Millisecond)})

	snap = m.Snapshot()
	assert.Equal(t, StatusSuccess, snap.Status)
	assert.Empty(t, snap.BusyMessage)
	assert.False(t, snap.HasPercentage)

	view = m.View()
	assert.Contains(t, view, "TRIM on drive E completed in 1.5s")
	assert.NotContains(t, view, "42%")
}

func TestModel_Failure(t *testing.T) {
	m := NewModel("SSD maintenance")

	send(m,
		progress.Event{Type: progress.EventStarted, Operation: "TRIM on drive E", Message: "Running TRIM on drive E..."},
		progress.Event{Type: progress.EventFailed, Message: errTest.Error(), Err: errTest},
	)

	snap := m.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "volume not found", snap.Error)
	assert.Contains(t, m.View(), "Error: volume not found")
}

func TestModel_OutputKeepsLastLines(t *testing.T) {
	m := NewModel("SSD maintenance")

	for i := range maxOutputLines + 3 {
		send(m, progress.Event{Type: progress.EventOutput, Line: fmt.Sprintf("line %d", i)})
	}

	lines := m.Snapshot().Lines
	require.Len(t, lines, maxOutputLines)
	assert.Equal(t, "line 3", lines[0])
	assert.Equal(t, fmt.Sprintf("line %d", maxOutputLines+2), lines[len(lines)-1])
}

func TestModel_RunCompletedWithError(t *testing.T) {
	m := NewModel("SSD maintenance")

	send(m, progress.Event{Type: progress.EventStarted, Operation: "status"})
	m.Update(RunCompletedMsg{Err: errTest})

	snap := m.Snapshot()
	assert.True(t, snap.Completed)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Contains(t, m.View(), "'q' to quit and return to terminal")
}

func TestModel_Keys(t *testing.T) {
	tests := []struct {
		key      tea.KeyMsg
		wantQuit bool
	}{
		{key: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, wantQuit: true},
		{key: tea.KeyMsg{Type: tea.KeyCtrlC}, wantQuit: true},
		{key: tea.KeyMsg{Type: tea.KeyEsc}, wantQuit: true},
		{key: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}, wantQuit: false},
	}

	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			m := NewModel("SSD maintenance")
			_, cmd := m.Update(tt.key)

			if tt.wantQuit {
				require.NotNil(t, cmd)
				assert.Equal(t, tea.Quit(), cmd())
				assert.Equal(t, "Shutting down...\n", m.View())

				return
			}

			assert.Nil(t, cmd)
		})
	}
}

func TestModel_WindowSize(t *testing.T) {
	m := NewModel("SSD maintenance")

	m.Update(tea.WindowSizeMsg{Width: 200, Height: 50})
	assert.Equal(t, maxBarWidth, m.bar.Width)

	m.Update(tea.WindowSizeMsg{Width: 15, Height: 50})
	assert.Equal(t, defaultBarWidth/2, m.bar.Width)

	send(m, progress.Event{Type: progress.EventOutput, Line: "a very long line that does not fit"})

	view := m.View()
	assert.Contains(t, view, "a very...")
	assert.NotContains(t, view, "does not fit")
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (f *fakeSender) Send(msg tea.Msg) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.msgs = append(f.msgs, msg)
}

func TestTUIReporter(t *testing.T) {
	s := &fakeSender{}
	r := NewTUIReporter(s)

	r.Report(progress.Event{Type: progress.EventPercentage, Percentage: 10})
	r.Report(progress.Event{Type: progress.EventPercentage, Percentage: 25})
	r.Close()
	r.Report(progress.Event{Type: progress.EventPercentage, Percentage: 30})

	require.Len(t, s.msgs, 2)
	assert.Equal(t, 10, s.msgs[0].(ProgressEventMsg).Event.Percentage)
	assert.Equal(t, 25, s.msgs[1].(ProgressEventMsg).Event.Percentage)
}

func TestRunner_ContextCancelled(t *testing.T) {
	r := NewRunner("SSD maintenance", WithProgramOptions(
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
	))

	ctx, cancel := context.WithCancel(context.Background())

	reported := make(chan struct{})

	go func() {
		<-reported
		cancel()
	}()

	err := r.Run(ctx, func(ctx context.Context, reporter progress.Reporter) error {
		reporter.Report(progress.Event{Type: progress.EventStarted, Operation: "status", Message: "Checking status..."})
		close(reported)
		<-ctx.Done()

		return ctx.Err()
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "Checking status...", r.Model().Snapshot().BusyMessage)
}
