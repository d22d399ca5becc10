// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "time"

// ErrorMarker prefixes locally rendered failure messages.
const ErrorMarker = "❌ "

// EntryKind classifies a transcript line.
type EntryKind int

const (
	EntryUser EntryKind = iota
	EntryAssistant
	// EntryError is a locally synthesized failure. It is never sent to the
	// service.
	EntryError
	// EntryNotice is UI text such as the greeting or a settings prompt.
	EntryNotice
)

func (k EntryKind) String() string {
	switch k {
	case EntryUser:
		return "user"
	case EntryAssistant:
		return "assistant"
	case EntryError:
		return "error"
	case EntryNotice:
		return "notice"
	default:
		return "unknown"
	}
}

// Entry is one rendered line of the chat.
type Entry struct {
	Kind EntryKind
	Text string
	At   time.Time
}

// FromBot reports whether the entry renders on the assistant side.
func (e Entry) FromBot() bool {
	return e.Kind != EntryUser
}

// ConnState is the connection indicator.
type ConnState int

const (
	ConnUnknown ConnState = iota
	ConnChecking
	ConnOnline
	ConnOffline
)

func (s ConnState) String() string {
	switch s {
	case ConnChecking:
		return "checking"
	case ConnOnline:
		return "online"
	case ConnOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// StatusKind colors the settings panel status line.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusError
)

// Status is the settings panel's feedback line. Empty Text means hidden.
type Status struct {
	Text string
	Kind StatusKind
}

// Theme is the color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}
