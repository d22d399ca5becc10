// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation data sent to the chatbot service.
//
// # Key Types
//
//   - Role: message sender (user or assistant)
//   - Message: one immutable turn, serialized as {"role", "content"}
//   - Buffer: bounded, ordered history of messages with FIFO eviction
//
// # Usage
//
//	var buf model.Buffer
//	history := buf.Snapshot()
//	buf.Append(model.NewUserMessage("Hello!"))
//
// A Buffer has exactly one owner and is not safe for concurrent use.
package model
