// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatwidget/internal/session"
)

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// A collapsed widget swallows the key that restores it.
	if m.window.Collapsed() {
		m.window.Restore()
		return m.sync()
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.refresh()
		return m, nil
	case m.showHelp && key.Matches(msg, m.keys.Close):
		m.showHelp = false
		m.refresh()
		return m, nil
	}

	if m.ctrl.PanelOpen() {
		return m.handlePanelKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Test):
		return m.dispatch(session.EventTestConnection, session.Payload{})
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Close):
		m.flash = ""
		return m, nil
	}

	if ev, ok := m.eventFor(msg); ok {
		return m.dispatch(ev, session.Payload{})
	}

	if m.ctrl.Sending() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handlePanelKey routes keys while the settings panel has focus. Enter
// saves and Ctrl+R tests the URL as typed.
func (m Model) handlePanelKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.dispatch(session.EventSaveSettings, session.Payload{Text: m.urlInput.Value()})
	case key.Matches(msg, m.keys.Test):
		return m.dispatch(session.EventTestConnection, session.Payload{Text: m.urlInput.Value()})
	case key.Matches(msg, m.keys.Close):
		return m.dispatch(session.EventCloseSettings, session.Payload{})
	}

	if ev, ok := m.eventFor(msg); ok {
		return m.dispatch(ev, session.Payload{})
	}

	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	return m, cmd
}

func (m Model) eventFor(msg tea.KeyMsg) (session.Event, bool) {
	for _, eb := range m.keys.eventBindings() {
		if key.Matches(msg, eb.binding) {
			return eb.event, true
		}
	}
	return "", false
}

// submit sends the input line, or runs it when it is a slash command. The
// line is kept when the controller did not accept it.
func (m Model) submit() (Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" || m.ctrl.Sending() {
		return m, nil
	}
	if isCommand(text) {
		m.input.Reset()
		return m.runCommand(text)
	}

	m, cmd := m.dispatch(session.EventSend, session.Payload{Text: text})
	if m.ctrl.Sending() {
		m.input.Reset()
	}
	return m, cmd
}

// quit asks the shell to close the window. The program ends even when the
// host refuses the request.
func (m Model) quit() (Model, tea.Cmd) {
	m, cmd := m.dispatch(session.EventClose, session.Payload{})
	if !m.window.Closed() {
		m.cancel()
		cmd = tea.Batch(cmd, tea.Quit)
	}
	return m, cmd
}
