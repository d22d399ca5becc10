// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat is the Bubble Tea front end of the chat widget.

The Model holds view state only: the text inputs, the transcript viewport and
the spinners. Conversation and UI state live in a session.Controller, and the
model talks to it exclusively through events:

	key press / slash command
	    -> Controller.Dispatch(event, payload)   (state change, maybe a Task)
	    -> tea.Cmd running the Task              (network, timers)
	    -> completionMsg                          (back on the update loop)
	    -> Controller.Apply(completion)

Window is the terminal backend of the window shell. The controller forwards
window requests through a shell.Host to it, and it converts them into
commands: fullscreen uses the alternate screen, pinning marks the terminal
title, minimize collapses the widget to one line, maximize uses the whole
terminal, and close quits the program.

# Key Bindings

	enter  send            C-s  settings       F11  fullscreen
	C-l    clear chat      C-r  test           C-n  minimize
	C-o    conversations   C-t  theme          C-x  maximize
	PgUp   scroll up       C-p  pin            F1   help
	PgDn   scroll down     esc  close panel    C-q  quit

# Slash Commands

/clear, /test, /settings, /theme, /pin, /fullscreen, /conversations, /help
and /quit are typed into the message input.
*/
package chat
