// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatwidget/internal/session"
	"github.com/jeranaias/chatwidget/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar: title, connection dot, and pin marker.
type Header struct {
	Title  string
	Conn   session.ConnState
	Pinned bool
	// Checking is the spinner frame shown while a probe runs.
	Checking string
	Width    int
	theme    *styles.Theme
}

// NewHeader creates a new Header component with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "Chat",
		Width: 56,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// Dot returns the connection indicator with a text label for terminals
// without color.
func (h *Header) Dot() string {
	switch h.Conn {
	case session.ConnOnline:
		return h.theme.DotOnline.Render("● online")
	case session.ConnOffline:
		return h.theme.DotOffline.Render("● offline")
	case session.ConnChecking:
		frame := h.Checking
		if frame == "" {
			frame = "●"
		}
		return h.theme.DotChecking.Render(frame + " checking")
	default:
		return h.theme.DotUnknown.Render("○")
	}
}

// View renders the header across Width.
func (h *Header) View() string {
	left := h.theme.HeaderTitle.Render(h.Title) + " " + h.Dot()

	right := ""
	if h.Pinned {
		right = h.theme.PinMarker.Render("[pinned]") + " "
	}
	right += h.theme.HeaderMuted.Render(string(h.theme.Mode))

	inner := h.Width - h.theme.Header.GetHorizontalFrameSize()
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		// Not enough room: keep the title and the dot.
		return h.theme.Header.Width(max(h.Width, 1)).Render(left)
	}
	line := left + lipgloss.NewStyle().Width(gap).Render("") + right
	return h.theme.Header.Width(h.Width).Render(line)
}
