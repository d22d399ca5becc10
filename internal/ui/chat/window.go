// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"
)

// PinnedMarker is appended to the terminal title while the widget is pinned.
// A terminal has no z-order, so the title is the visible state.
const PinnedMarker = " [pinned]"

// Window is the terminal backend of the window shell. Calls made by the
// shell host are turned into Bubble Tea commands and collected until the
// model drains them after each update.
type Window struct {
	title string

	collapsed  bool
	maximized  bool
	fullscreen bool
	onTop      bool
	closed     bool

	pending []tea.Cmd
}

// NewWindow creates a window backend for a terminal titled title.
func NewWindow(title string) *Window {
	return &Window{title: title}
}

// Minimize collapses the widget to a single line until the next key press.
func (w *Window) Minimize() {
	w.collapsed = true
}

// Close quits the program.
func (w *Window) Close() {
	w.closed = true
	w.push(tea.Quit)
}

// ToggleMaximize switches between the configured widget size and the full
// terminal.
func (w *Window) ToggleMaximize() {
	w.maximized = !w.maximized
}

// SetAlwaysOnTop marks the terminal title.
func (w *Window) SetAlwaysOnTop(on bool) {
	w.onTop = on
	w.push(tea.SetWindowTitle(w.Title()))
}

// SetFullscreen enters or leaves the alternate screen.
func (w *Window) SetFullscreen(on bool) {
	if on == w.fullscreen {
		return
	}
	w.fullscreen = on
	if on {
		w.push(tea.EnterAltScreen)
	} else {
		w.push(tea.ExitAltScreen)
	}
}

// Restore expands a collapsed widget.
func (w *Window) Restore() {
	w.collapsed = false
}

// Title is the terminal title for the current pin state.
func (w *Window) Title() string {
	if w.onTop {
		return w.title + PinnedMarker
	}
	return w.title
}

func (w *Window) Collapsed() bool  { return w.collapsed }
func (w *Window) Maximized() bool  { return w.maximized }
func (w *Window) Fullscreen() bool { return w.fullscreen }
func (w *Window) OnTop() bool      { return w.onTop }
func (w *Window) Closed() bool     { return w.closed }

// Drain returns the queued commands as one and empties the queue.
func (w *Window) Drain() tea.Cmd {
	if len(w.pending) == 0 {
		return nil
	}
	cmds := w.pending
	w.pending = nil
	return tea.Batch(cmds...)
}

func (w *Window) push(cmd tea.Cmd) {
	w.pending = append(w.pending, cmd)
}
