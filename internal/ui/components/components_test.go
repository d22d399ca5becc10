// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatwidget/internal/session"
	"github.com/jeranaias/chatwidget/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme(styles.ModeDark)
}

// =============================================================================
// MESSAGE BUBBLE TESTS
// =============================================================================

func TestMessageBubble_FitsWidth(t *testing.T) {
	long := strings.Repeat("word ", 60)
	for _, kind := range []session.EntryKind{session.EntryUser, session.EntryAssistant, session.EntryError, session.EntryNotice} {
		b := NewMessageBubble(session.Entry{Kind: kind, Text: long}, testTheme())
		b.SetWidth(56)
		for _, line := range strings.Split(b.View(), "\n") {
			require.LessOrEqual(t, lipgloss.Width(line), 56, "kind %s", kind)
		}
	}
}

func TestMessageBubble_Alignment(t *testing.T) {
	user := NewMessageBubble(session.Entry{Kind: session.EntryUser, Text: "hi"}, testTheme())
	user.SetWidth(56)
	firstUser := strings.Split(user.View(), "\n")[0]
	require.True(t, strings.HasPrefix(firstUser, " "), "user bubble should be pushed right")

	bot := NewMessageBubble(session.Entry{Kind: session.EntryAssistant, Text: "hello"}, testTheme())
	bot.SetWidth(56)
	firstBot := strings.Split(bot.View(), "\n")[0]
	require.False(t, strings.HasPrefix(firstBot, " "), "bot bubble should hug the left edge")
}

func TestMessageBubble_Timestamp(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 41, 0, 0, time.UTC)
	b := NewMessageBubble(session.Entry{Kind: session.EntryAssistant, Text: "x", At: at}, testTheme())
	b.ShowTimestamp = true
	require.Contains(t, b.View(), "09:41")

	b.ShowTimestamp = false
	require.NotContains(t, b.View(), "09:41")
}

func TestRenderTranscript_KeepsOrder(t *testing.T) {
	entries := []session.Entry{
		{Kind: session.EntryNotice, Text: "greeting"},
		{Kind: session.EntryUser, Text: "question"},
		{Kind: session.EntryAssistant, Text: "answer"},
	}
	out := RenderTranscript(entries, 56, false, testTheme())
	g := strings.Index(out, "greeting")
	q := strings.Index(out, "question")
	a := strings.Index(out, "answer")
	require.True(t, g >= 0 && q > g && a > q, "entries out of order:\n%s", out)
}

// =============================================================================
// CODE BLOCK TESTS
// =============================================================================

func TestParseCodeBlocks_NoFence(t *testing.T) {
	require.Equal(t, "plain text", ParseCodeBlocks("plain text", 40, testTheme()))
}

func TestParseCodeBlocks_RemovesFences(t *testing.T) {
	in := "before\n```go\nfmt.Println(1)\n```\nafter"
	out := ParseCodeBlocks(in, 40, testTheme())
	require.NotContains(t, out, "```")
	require.Contains(t, out, "before")
	require.Contains(t, out, "after")
	require.Contains(t, out, "go")
}

func TestParseCodeBlocks_Unclosed(t *testing.T) {
	out := ParseCodeBlocks("```\nx := 1", 40, testTheme())
	require.NotContains(t, out, "```")
}

func TestParseInlineCode(t *testing.T) {
	require.Equal(t, "no code", ParseInlineCode("no code", testTheme()))
	require.NotContains(t, ParseInlineCode("run `ls` now", testTheme()), "`")
	require.Equal(t, "open `tick", ParseInlineCode("open `tick", testTheme()))
}

func TestHighlightCode_UnknownLanguage(t *testing.T) {
	out := highlightCode("hello", "no-such-language", styles.ModeLight)
	require.Contains(t, out, "hello")
}

// =============================================================================
// HEADER AND STATUS BAR TESTS
// =============================================================================

func TestHeader_Dot(t *testing.T) {
	h := NewHeader(testTheme())
	h.Conn = session.ConnOnline
	require.Contains(t, h.Dot(), "online")
	h.Conn = session.ConnOffline
	require.Contains(t, h.Dot(), "offline")
	h.Conn = session.ConnChecking
	h.Checking = "/"
	require.Contains(t, h.Dot(), "/ checking")
}

func TestHeader_PinMarker(t *testing.T) {
	h := NewHeader(testTheme())
	require.NotContains(t, h.View(), "[pinned]")
	h.Pinned = true
	require.Contains(t, h.View(), "[pinned]")
}

func TestHeader_NarrowKeepsTitle(t *testing.T) {
	h := NewHeader(testTheme())
	h.Pinned = true
	h.SetWidth(18)
	require.Contains(t, h.View(), "Chat")
}

func TestStatusBar(t *testing.T) {
	s := NewStatusBar(testTheme())
	s.Exchanges = 1
	require.Contains(t, s.View(), "1 exchange")

	s.Exchanges = 3
	require.Contains(t, s.View(), "3 exchanges")

	s.Status = session.Status{Text: "Settings saved!", Kind: session.StatusSuccess}
	out := s.View()
	require.Contains(t, out, "Settings saved!")
	require.Contains(t, out, styles.StatusIndicators.Success)
}
