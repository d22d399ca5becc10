// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Mode selects the light or dark half of every palette entry.
type Mode string

const (
	ModeDark  Mode = "dark"
	ModeLight Mode = "light"
)

// DetectMode asks the terminal for its background color.
func DetectMode() Mode {
	if termenv.HasDarkBackground() {
		return ModeDark
	}
	return ModeLight
}

// ParseMode maps a stored theme name to a Mode. Anything but "light" is dark.
func ParseMode(s string) Mode {
	if Mode(s) == ModeLight {
		return ModeLight
	}
	return ModeDark
}

// Color resolves c for the mode. The widget switches themes at runtime, so
// adaptive colors are pinned instead of left to lipgloss's detection.
func (m Mode) Color(c lipgloss.AdaptiveColor) lipgloss.Color {
	if m == ModeLight {
		return lipgloss.Color(c.Light)
	}
	return lipgloss.Color(c.Dark)
}

// Theme holds all the styled components for one mode.
type Theme struct {
	Mode Mode

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderMuted lipgloss.Style
	PinMarker   lipgloss.Style

	DotOnline   lipgloss.Style
	DotOffline  lipgloss.Style
	DotChecking lipgloss.Style
	DotUnknown  lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	NoticeBubble    lipgloss.Style
	ErrorBubble     lipgloss.Style
	Timestamp       lipgloss.Style
	Typing          lipgloss.Style
	CodeBlock       lipgloss.Style
	CodeLang        lipgloss.Style

	// ==========================================================================
	// INPUT AND PANEL STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	Placeholder    lipgloss.Style
	Panel          lipgloss.Style
	PanelTitle     lipgloss.Style
	PanelLabel     lipgloss.Style

	// ==========================================================================
	// STATUS STYLES
	// ==========================================================================

	StatusBar     lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusError   lipgloss.Style
	Help          lipgloss.Style
	Collapsed     lipgloss.Style
}

// NewTheme creates a theme with every style resolved for mode.
func NewTheme(mode Mode) *Theme {
	if mode != ModeLight {
		mode = ModeDark
	}
	t := &Theme{Mode: mode}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	c := t.Mode.Color

	t.Header = lipgloss.NewStyle().
		Background(c(SurfaceDim)).
		Foreground(c(TextPrimary)).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(c(Purple))
	t.HeaderMuted = lipgloss.NewStyle().Foreground(c(TextMuted))
	t.PinMarker = lipgloss.NewStyle().Bold(true).Foreground(c(Amber))

	t.DotOnline = lipgloss.NewStyle().Foreground(c(Emerald))
	t.DotOffline = lipgloss.NewStyle().Foreground(c(Rose))
	t.DotChecking = lipgloss.NewStyle().Foreground(c(Amber))
	t.DotUnknown = lipgloss.NewStyle().Foreground(c(TextMuted))

	// User bubbles hug the right edge, bot bubbles the left.
	t.UserBubble = lipgloss.NewStyle().
		Foreground(c(UserBubbleFg)).
		Background(c(UserBubbleBg)).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c(UserBubbleBorder)).
		Padding(0, 1)
	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(c(AssistantBubbleFg)).
		Background(c(AssistantBubbleBg)).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c(AssistantBubbleBorder)).
		Padding(0, 1)
	t.NoticeBubble = lipgloss.NewStyle().
		Foreground(c(NoticeBubbleFg)).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c(NoticeBubbleBorder)).
		Padding(0, 1)
	t.ErrorBubble = lipgloss.NewStyle().
		Foreground(c(ErrorBubbleFg)).
		Background(c(ErrorBubbleBg)).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c(Rose)).
		Padding(0, 1)
	t.Timestamp = lipgloss.NewStyle().Foreground(c(TextMuted)).Italic(true)
	t.Typing = lipgloss.NewStyle().Foreground(c(TextSecondary)).Italic(true)
	t.CodeBlock = lipgloss.NewStyle().
		Background(c(Surface)).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(c(OverlayDim)).
		PaddingLeft(1)
	t.CodeLang = lipgloss.NewStyle().Foreground(c(TextMuted))

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c(Cyan)).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Bold(true).Foreground(c(Cyan))
	t.Placeholder = lipgloss.NewStyle().Foreground(c(TextMuted))
	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c(Purple)).
		Padding(0, 1)
	t.PanelTitle = lipgloss.NewStyle().Bold(true).Foreground(c(Purple))
	t.PanelLabel = lipgloss.NewStyle().Foreground(c(TextSecondary))

	t.StatusBar = lipgloss.NewStyle().Foreground(c(TextSecondary)).Padding(0, 1)
	t.StatusInfo = lipgloss.NewStyle().Foreground(c(Cyan))
	t.StatusSuccess = lipgloss.NewStyle().Bold(true).Foreground(c(Emerald))
	t.StatusError = lipgloss.NewStyle().Bold(true).Foreground(c(Rose))
	t.Help = lipgloss.NewStyle().Foreground(c(TextMuted))
	t.Collapsed = lipgloss.NewStyle().
		Background(c(Overlay)).
		Foreground(c(TextPrimary)).
		Padding(0, 1)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// BubbleWidth is the widest a message bubble may render, borders included.
func (t *Theme) BubbleWidth() int {
	switch t.GetLayoutMode() {
	case LayoutNarrow:
		return max(t.Width-2, 10)
	case LayoutMedium:
		return t.Width * 4 / 5
	default:
		return min(t.Width*2/3, 100)
	}
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 40 {
		return LayoutNarrow
	}
	if t.Width < 80 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 40 columns
	LayoutMedium                   // 40-80 columns, the default widget
	LayoutWide                     // >= 80 columns, maximized or fullscreen
)
