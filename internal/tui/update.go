// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/ssdtrim/internal/progress"
)

const durationRounding = 100 * time.Millisecond

// ProgressEventMsg wraps a progress event for the tea framework.
type ProgressEventMsg struct {
	Event progress.Event
}

// RunCompletedMsg indicates that the operation has returned.
type RunCompletedMsg struct {
	Err error
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mutex.Lock()
		m.setSize(msg.Width, msg.Height)
		m.mutex.Unlock()

		return m, nil

	case spinner.TickMsg:
		m.mutex.Lock()
		defer m.mutex.Unlock()

		var cmd tea.Cmd

		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case ProgressEventMsg:
		m.mutex.Lock()
		m.processProgressEvent(msg.Event)
		m.mutex.Unlock()

		return m, nil

	case RunCompletedMsg:
		m.mutex.Lock()
		m.completed = true

		if msg.Err != nil && m.status != StatusFailed {
			m.status = StatusFailed
			m.errorMsg = msg.Err.Error()
		}

		m.mutex.Unlock()

		return m, nil

	case tea.QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var view strings.Builder

	view.WriteString(m.styles.Title.Render(m.title))
	view.WriteString("\n")

	var body strings.Builder

	switch m.status {
	case StatusRunning:
		if m.busyMessage != "" {
			body.WriteString(m.spinner.View())
			body.WriteString(" ")
			body.WriteString(m.styles.Busy.Render(m.busyMessage))
			body.WriteString("\n")
		}

		if m.hasPercentage {
			body.WriteString(m.bar.ViewAs(float64(m.percentage) / 100)) //nolint:mnd
			body.WriteString(" ")
			body.WriteString(strconv.Itoa(m.percentage) + "%")
			body.WriteString("\n")
		}
	case StatusSuccess:
		body.WriteString(m.styles.Success.Render(fmt.Sprintf("✅ %s completed%s", m.operation, m.elapsed())))
		body.WriteString("\n")
	case StatusFailed:
		body.WriteString(m.styles.Failed.Render(fmt.Sprintf("❌ %s failed%s", m.operation, m.elapsed())))
		body.WriteString("\n")

		if m.errorMsg != "" {
			body.WriteString(m.styles.Error.Render("Error: " + m.errorMsg))
			body.WriteString("\n")
		}
	default:
		body.WriteString(m.spinner.View())
		body.WriteString(" Starting...\n")
	}

	if len(m.lines) > 0 {
		body.WriteString("\n")

		for _, line := range m.lines {
			body.WriteString(m.styles.Output.Render(m.truncate(line)))
			body.WriteString("\n")
		}
	}

	view.WriteString(m.styles.Border.Render(strings.TrimSuffix(body.String(), "\n")))

	helpText := "'q' to cancel"
	if m.completed {
		helpText = "'q' to quit and return to terminal"
	}

	view.WriteString("\n")
	view.WriteString(m.styles.Help.Render(helpText))
	view.WriteString("\n")

	return view.String()
}

func (m *Model) elapsed() string {
	if m.startTime == nil || m.endTime == nil {
		return ""
	}

	return fmt.Sprintf(" in %v", m.endTime.Sub(*m.startTime).Round(durationRounding))
}

const ellipsis = "..."

// truncate shortens line to fit inside the border.
func (m *Model) truncate(line string) string {
	limit := m.width - 6 //nolint:mnd
	if m.width == 0 || limit <= len(ellipsis) {
		return line
	}

	r := []rune(line)
	if len(r) <= limit {
		return line
	}

	return string(r[:limit-len(ellipsis)]) + ellipsis
}
