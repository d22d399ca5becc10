// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatwidget/internal/session"
	"github.com/jeranaias/chatwidget/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one transcript entry.
type MessageBubble struct {
	Entry         session.Entry
	Width         int
	ShowTimestamp bool
	theme         *styles.Theme
}

// NewMessageBubble creates a bubble for entry.
func NewMessageBubble(entry session.Entry, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		Entry: entry,
		Width: 56,
		theme: theme,
	}
}

// SetWidth sets the width of the surrounding area.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the bubble aligned within Width: user entries to the right,
// everything from the bot to the left.
func (b *MessageBubble) View() string {
	maxWidth := b.maxWidth()
	content := b.Entry.Text

	var style lipgloss.Style
	switch b.Entry.Kind {
	case session.EntryUser:
		style = b.theme.UserBubble
	case session.EntryAssistant:
		style = b.theme.AssistantBubble
		content = ParseInlineCode(ParseCodeBlocks(content, maxWidth-4, b.theme), b.theme)
	case session.EntryError:
		style = b.theme.ErrorBubble
	default:
		style = b.theme.NoticeBubble
	}

	// The frame takes two cells of border and two of padding.
	inner := maxWidth - style.GetHorizontalFrameSize()
	if inner < 1 {
		inner = 1
	}
	if w := lipgloss.Width(content); w < inner {
		inner = w
	}
	bubble := style.Width(inner + style.GetHorizontalPadding()).Render(content)

	if b.ShowTimestamp && !b.Entry.At.IsZero() {
		bubble = lipgloss.JoinVertical(b.align(), bubble, b.theme.Timestamp.Render(b.Entry.At.Format("15:04")))
	}

	return lipgloss.PlaceHorizontal(b.Width, b.align(), bubble)
}

func (b *MessageBubble) align() lipgloss.Position {
	if b.Entry.Kind == session.EntryUser {
		return lipgloss.Right
	}
	return lipgloss.Left
}

func (b *MessageBubble) maxWidth() int {
	t := *b.theme
	t.SetSize(b.Width, t.Height)
	return t.BubbleWidth()
}

// RenderTranscript renders entries top to bottom separated by blank lines.
func RenderTranscript(entries []session.Entry, width int, showTimestamps bool, theme *styles.Theme) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		b := NewMessageBubble(e, theme)
		b.SetWidth(width)
		b.ShowTimestamp = showTimestamps && e.Kind != session.EntryNotice
		parts = append(parts, b.View())
	}
	return strings.Join(parts, "\n\n")
}

// TypingIndicator is shown under the transcript while a reply is pending.
func TypingIndicator(frame string, theme *styles.Theme) string {
	return theme.Typing.Render("typing " + frame)
}
