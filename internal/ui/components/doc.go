// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components renders the pieces of the chat widget: the header with
// the connection dot, message bubbles, highlighted code blocks, and the
// status bar. Components hold no state beyond what they render.
package components
