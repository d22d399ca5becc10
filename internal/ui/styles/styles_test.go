// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	require.Equal(t, ModeLight, ParseMode("light"))
	require.Equal(t, ModeDark, ParseMode("dark"))
	require.Equal(t, ModeDark, ParseMode(""))
	require.Equal(t, ModeDark, ParseMode("solarized"))
}

func TestModeColor(t *testing.T) {
	c := lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#000000"}
	require.Equal(t, lipgloss.Color("#FFFFFF"), ModeLight.Color(c))
	require.Equal(t, lipgloss.Color("#000000"), ModeDark.Color(c))
}

func TestNewTheme_ResolvesForMode(t *testing.T) {
	light := NewTheme(ModeLight)
	dark := NewTheme(ModeDark)

	require.Equal(t, ModeLight, light.Mode)
	require.Equal(t, ModeDark, dark.Mode)
	require.Equal(t, lipgloss.Color(Purple.Light), light.HeaderTitle.GetForeground())
	require.Equal(t, lipgloss.Color(Purple.Dark), dark.HeaderTitle.GetForeground())
	require.Equal(t, lipgloss.Color(UserBubbleBg.Light), light.UserBubble.GetBackground())
}

func TestNewTheme_UnknownModeIsDark(t *testing.T) {
	require.Equal(t, ModeDark, NewTheme(Mode("sepia")).Mode)
}

func TestLayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{20, LayoutNarrow},
		{39, LayoutNarrow},
		{40, LayoutMedium},
		{56, LayoutMedium},
		{79, LayoutMedium},
		{80, LayoutWide},
		{200, LayoutWide},
	}
	theme := NewTheme(ModeDark)
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		require.Equal(t, tt.want, theme.GetLayoutMode(), "width %d", tt.width)
	}
}

func TestBubbleWidth(t *testing.T) {
	theme := NewTheme(ModeDark)

	theme.SetSize(30, 10)
	require.Equal(t, 28, theme.BubbleWidth())

	theme.SetSize(5, 10)
	require.Equal(t, 10, theme.BubbleWidth())

	theme.SetSize(56, 28)
	require.Equal(t, 44, theme.BubbleWidth())

	theme.SetSize(300, 80)
	require.Equal(t, 100, theme.BubbleWidth())
}


func TestSpinnersHaveFrames(t *testing.T) {
	require.NotEmpty(t, TypingSpinner.Frames)
	require.Greater(t, int64(TypingSpinner.FPS), int64(0))
	require.NotEmpty(t, CheckingSpinner.Frames)
}
