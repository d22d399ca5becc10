// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors and Lip Gloss styles of the chat widget.

Palette entries are lipgloss.AdaptiveColor values. A Theme resolves each of
them for one Mode, so that the user can flip between light and dark at runtime
regardless of what the terminal reports:

	theme := styles.NewTheme(styles.ParseMode(cfg.Theme))
	bubble := theme.UserBubble.MaxWidth(theme.BubbleWidth()).Render(text)

DetectMode reads the terminal background through termenv and is used only
when no theme has been saved yet.
*/
package styles
