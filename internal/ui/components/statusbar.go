// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatwidget/internal/session"
	"github.com/jeranaias/chatwidget/internal/ui/styles"
	"github.com/jeranaias/chatwidget/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the line under the input: the settings status when one is
// shown, otherwise the exchange count and a help hint.
type StatusBar struct {
	Status    session.Status
	Exchanges int
	Hint      string
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Hint:  "ctrl+s settings  ? help",
		Width: 56,
		theme: theme,
	}
}

// SetWidth updates the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the bar truncated to Width.
func (s *StatusBar) View() string {
	inner := s.Width - s.theme.StatusBar.GetHorizontalFrameSize()
	if inner < 1 {
		inner = 1
	}

	if s.Status.Text != "" {
		return s.theme.StatusBar.Render(StatusLine(s.Status, inner, s.theme))
	}

	left := s.theme.Help.Render(exchangesLabel(s.Exchanges))
	right := s.theme.Help.Render(s.Hint)
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return s.theme.StatusBar.Render(util.TruncateWidth(exchangesLabel(s.Exchanges), inner))
	}
	return s.theme.StatusBar.Render(left + lipgloss.NewStyle().Width(gap).Render("") + right)
}

// StatusLine formats a settings status with its indicator.
func StatusLine(st session.Status, width int, theme *styles.Theme) string {
	var style lipgloss.Style
	var mark string
	switch st.Kind {
	case session.StatusSuccess:
		style, mark = theme.StatusSuccess, styles.StatusIndicators.Success
	case session.StatusError:
		style, mark = theme.StatusError, styles.StatusIndicators.Error
	default:
		style, mark = theme.StatusInfo, styles.StatusIndicators.Info
	}
	return style.Render(util.TruncateWidth(mark+" "+st.Text, width))
}

func exchangesLabel(n int) string {
	if n == 1 {
		return "1 exchange"
	}
	return strconv.Itoa(n) + " exchanges"
}
