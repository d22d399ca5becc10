// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/jeranaias/chatwidget/internal/session"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the widget.
type KeyMap struct {
	Submit        key.Binding
	Clear         key.Binding
	Settings      key.Binding
	Test          key.Binding
	Theme         key.Binding
	Pin           key.Binding
	Fullscreen    key.Binding
	Minimize      key.Binding
	Maximize      key.Binding
	Conversations key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	Close         key.Binding
	Help          key.Binding
	Quit          key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "clear chat"),
		),
		Settings: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "settings"),
		),
		Test: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "test connection"),
		),
		Theme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "toggle theme"),
		),
		Pin: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("C-p", "pin on top"),
		),
		Fullscreen: key.NewBinding(
			key.WithKeys("f11"),
			key.WithHelp("F11", "fullscreen"),
		),
		Minimize: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "minimize"),
		),
		Maximize: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "maximize"),
		),
		Conversations: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "conversations"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close panel"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+c"),
			key.WithHelp("C-q", "quit"),
		),
	}
}

// =============================================================================
// KEY BINDING HELPERS
// =============================================================================

// ShortHelp returns the bindings shown in the status line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Settings, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the help view, grouped in columns.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Clear, k.Conversations, k.PageUp, k.PageDown},
		{k.Settings, k.Test, k.Close, k.Theme},
		{k.Pin, k.Fullscreen, k.Minimize, k.Maximize, k.Quit},
	}
}

// eventBindings maps the bindings that translate one-to-one into controller
// events. Submit, Close and Test depend on the panel and are handled apart.
func (k KeyMap) eventBindings() []eventBinding {
	return []eventBinding{
		{k.Clear, session.EventClear},
		{k.Settings, session.EventToggleSettings},
		{k.Theme, session.EventToggleTheme},
		{k.Pin, session.EventTogglePin},
		{k.Fullscreen, session.EventToggleFullscreen},
		{k.Minimize, session.EventMinimize},
		{k.Maximize, session.EventMaximize},
		{k.Conversations, session.EventListConversations},
		{k.Quit, session.EventClose},
	}
}

type eventBinding struct {
	binding key.Binding
	event   session.Event
}
