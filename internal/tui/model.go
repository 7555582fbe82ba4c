// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"sync"
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/ssdtrim/internal/progress"
)

const (
	maxOutputLines  = 8
	defaultBarWidth = 40
	maxBarWidth     = 80
	barPadding      = 10
)

// RunStatus represents the state of the run shown by the TUI.
type RunStatus int

const (
	StatusIdle RunStatus = iota
	StatusRunning
	StatusSuccess
	StatusFailed
)

// String returns a string representation of the run status.
func (s RunStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Model represents the TUI application state.
type Model struct {
	title         string
	operation     string
	busyMessage   string
	percentage    int
	hasPercentage bool
	status        RunStatus
	errorMsg      string
	lines         []string
	startTime     *time.Time
	endTime       *time.Time

	width     int
	height    int
	quitting  bool
	completed bool
	mutex     sync.RWMutex

	bar     bprogress.Model
	spinner spinner.Model
	styles  *Styles
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title   lipgloss.Style
	Busy    lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Output  lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
	Border  lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1),
		Busy: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1),
	}
}

// NewModel creates a new TUI model with the given title.
func NewModel(title string) *Model {
	return &Model{
		title: title,
		bar: bprogress.New(
			bprogress.WithDefaultGradient(),
			bprogress.WithoutPercentage(),
			bprogress.WithWidth(defaultBarWidth),
		),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:  NewStyles(),
	}
}

// Snapshot is a copy of the displayed state, used by tests and the final summary.
type Snapshot struct {
	Operation     string
	BusyMessage   string
	Percentage    int
	HasPercentage bool
	Status        RunStatus
	Error         string
	Lines         []string
	Completed     bool
}

// Snapshot returns a copy of the current state.
func (m *Model) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return Snapshot{
		Operation:     m.operation,
		BusyMessage:   m.busyMessage,
		Percentage:    m.percentage,
		HasPercentage: m.hasPercentage,
		Status:        m.status,
		Error:         m.errorMsg,
		Lines:         append([]string(nil), m.lines...),
		Completed:     m.completed,
	}
}

// processProgressEvent applies one event to the model. The caller holds the lock.
func (m *Model) processProgressEvent(event progress.Event) {
	switch event.Type {
	case progress.EventStarted:
		now := event.Timestamp
		m.operation = event.Operation
		m.busyMessage = event.Message
		m.hasPercentage = false
		m.percentage = 0
		m.status = StatusRunning
		m.errorMsg = ""
		m.startTime = &now
		m.endTime = nil

	case progress.EventPercentage:
		m.percentage = event.Percentage
		m.hasPercentage = true

	case progress.EventBusy:
		m.busyMessage = event.Message

	case progress.EventOutput:
		m.lines = append(m.lines, event.Line)
		if len(m.lines) > maxOutputLines {
			m.lines = m.lines[len(m.lines)-maxOutputLines:]
		}

	case progress.EventCompleted, progress.EventFailed:
		now := event.Timestamp
		m.endTime = &now
		m.busyMessage = ""
		m.hasPercentage = false
		m.status = StatusSuccess

		if event.Type == progress.EventFailed {
			m.status = StatusFailed
			m.errorMsg = event.Message
		}
	}
}

// setSize adapts the progress bar to the terminal width. The caller holds the lock.
func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height

	w := width - barPadding
	if w > maxBarWidth {
		w = maxBarWidth
	}

	if w < defaultBarWidth/2 {
		w = defaultBarWidth / 2
	}

	m.bar.Width = w
}
