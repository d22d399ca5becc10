// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatwidget/internal/session"
	"github.com/jeranaias/chatwidget/internal/ui/components"
	"github.com/jeranaias/chatwidget/internal/ui/styles"
	"github.com/jeranaias/chatwidget/internal/util"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the widget. Layout: header, transcript viewport, optional
// settings panel, input box, status bar.
func (m Model) View() string {
	if m.window.Closed() {
		return ""
	}
	theme := m.theme()
	width, _ := m.size()

	if m.window.Collapsed() {
		return m.renderCollapsed(theme, width)
	}

	parts := []string{m.renderHeader(theme, width), m.viewport.View()}
	if m.ctrl.PanelOpen() {
		parts = append(parts, m.renderPanel(theme, width))
	}
	parts = append(parts, m.renderInput(theme, width), m.renderStatus(theme, width))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) theme() *styles.Theme {
	if t, ok := m.themes[m.ctrl.Theme()]; ok {
		return t
	}
	return m.themes[session.ThemeDark]
}

// size is the configured widget size clamped to the terminal, or the whole
// terminal when maximized or fullscreen.
func (m Model) size() (int, int) {
	w, h := m.widgetWidth, m.widgetHeight
	if m.termWidth <= 0 || m.termHeight <= 0 {
		return w, h
	}
	if m.window.Maximized() || m.window.Fullscreen() {
		return m.termWidth, m.termHeight
	}
	return min(w, m.termWidth), min(h, m.termHeight)
}

// layout sizes the viewport to whatever the fixed rows leave over.
func (m *Model) layout() {
	width, height := m.size()
	theme := m.theme()
	theme.SetSize(width, height)

	used := headerHeight + inputHeight + statusHeight
	if m.ctrl.PanelOpen() {
		used += lipgloss.Height(m.renderPanel(theme, width))
	}
	m.viewport.Width = width
	m.viewport.Height = max(height-used, 1)

	// Room for the border, padding and prompt of the input box.
	m.input.Width = max(width-4-lipgloss.Width(m.input.Prompt)-1, 1)
	m.urlInput.Width = max(width-6, 1)
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	theme := m.theme()
	if m.showHelp {
		m.viewport.SetContent(m.renderHelp(theme))
		m.viewport.GotoTop()
		return
	}

	content := components.RenderTranscript(m.ctrl.Transcript(), m.viewport.Width, m.showTimestamps, theme)
	if m.ctrl.Sending() {
		content += "\n\n" + components.TypingIndicator(m.typing.View(), theme)
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

// =============================================================================
// SECTIONS
// =============================================================================

func (m Model) renderHeader(theme *styles.Theme, width int) string {
	h := components.NewHeader(theme)
	h.Title = m.title
	h.Conn = m.ctrl.Connection()
	h.Pinned = m.ctrl.Pinned()
	h.Checking = m.checking.View()
	h.SetWidth(width)
	return h.View()
}

func (m Model) renderPanel(theme *styles.Theme, width int) string {
	inner := max(width-theme.Panel.GetHorizontalFrameSize(), 1)
	lines := []string{
		theme.PanelTitle.Render("Settings"),
		theme.PanelLabel.Render("API URL"),
		m.urlInput.View(),
		theme.Help.Render(util.TruncateWidth("enter save  C-r test  esc close", inner)),
	}
	if st := m.ctrl.Status(); st.Text != "" {
		lines = append(lines, components.StatusLine(st, inner, theme))
	}
	return theme.Panel.Width(max(width-2, 1)).Render(strings.Join(lines, "\n"))
}

func (m Model) renderInput(theme *styles.Theme, width int) string {
	line := m.input.View()
	if m.ctrl.Sending() {
		line = theme.InputPrompt.Render(m.input.Prompt) + theme.Placeholder.Render(placeholderWaiting)
	}
	return theme.InputContainer.Width(max(width-2, 1)).Render(line)
}

func (m Model) renderStatus(theme *styles.Theme, width int) string {
	bar := components.NewStatusBar(theme)
	bar.SetWidth(width)
	bar.Exchanges = m.ctrl.Exchanges()
	if !m.ctrl.PanelOpen() {
		bar.Status = m.ctrl.Status()
	}
	if bar.Status.Text == "" && m.flash != "" {
		bar.Status = session.Status{Text: m.flash, Kind: session.StatusInfo}
	}
	return bar.View()
}

func (m Model) renderHelp(theme *styles.Theme) string {
	return theme.PanelTitle.Render("Keys") + "\n" +
		m.help.View(m.keys) + "\n\n" +
		theme.PanelTitle.Render("Commands") + "\n" +
		theme.Help.Render(commandHelp(m.cmdList)) + "\n\n" +
		theme.Help.Render("F1 or esc to return")
}

func (m Model) renderCollapsed(theme *styles.Theme, width int) string {
	h := components.NewHeader(theme)
	h.Conn = m.ctrl.Connection()
	line := m.window.Title() + "  " + h.Dot() + "  " + theme.HeaderMuted.Render("press any key")
	return theme.Collapsed.Width(width).MaxHeight(1).Render(line)
}
