// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the chat widget's state controller.
//
// A Controller owns everything that changes while the widget runs: the
// conversation buffer, the rendered transcript, the configured API URL and
// the UI flags (sending, settings panel, fullscreen, pinned, theme). Front
// ends never mutate that state directly; they dispatch named events
// through the controller's dispatch table.
//
// # Concurrency
//
// The controller is single-owner and not safe for concurrent use. Events
// that wait on the network return a Task. A Task runs anywhere (a Bubble
// Tea command goroutine, or inline) and only touches data copied at
// dispatch time. It yields a Completion, which the owner applies on its own
// thread. A Completion may return a follow-up Task, such as hiding a status
// line after a delay.
//
// # Usage
//
//	ctrl, err := session.New(session.Options{
//	    Store:     store,
//	    Transport: chatbot.NewClient(),
//	})
//	if err := ctrl.SendMessage(ctx, "hi"); err != nil {
//	    // not configured, or a send is already in flight
//	}
//	for _, entry := range ctrl.Transcript() {
//	    fmt.Println(entry.Text)
//	}
package session
