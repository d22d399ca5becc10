// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// MaxMessages caps the history sent with each request (80 exchanges).
const MaxMessages = 160

// Buffer is the ordered conversation history. Length never exceeds
// MaxMessages; overflow drops the oldest messages. The zero value is an
// empty buffer ready to use.
type Buffer struct {
	messages []Message
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{messages: make([]Message, 0, MaxMessages)}
}

// Append adds msg at the tail and evicts from the head until the bound
// holds again.
func (b *Buffer) Append(msg Message) {
	b.messages = append(b.messages, msg)
	b.prune()
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	if len(b.messages) == 0 {
		return
	}
	// Fresh backing array so earlier snapshots stay independent.
	b.messages = make([]Message, 0, MaxMessages)
}

// Snapshot returns a copy of the messages in append order. Changing the
// returned slice never changes the buffer.
func (b *Buffer) Snapshot() []Message {
	out := make([]Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// Len returns the number of messages held.
func (b *Buffer) Len() int {
	return len(b.messages)
}

// Last returns the most recent message, or false if the buffer is empty.
func (b *Buffer) Last() (Message, bool) {
	if len(b.messages) == 0 {
		return Message{}, false
	}
	return b.messages[len(b.messages)-1], true
}

// Exchanges counts completed user/assistant pairs.
func (b *Buffer) Exchanges() int {
	n := 0
	for i := 1; i < len(b.messages); i++ {
		if b.messages[i-1].IsUser() && b.messages[i].IsAssistant() {
			n++
		}
	}
	return n
}

func (b *Buffer) prune() {
	over := len(b.messages) - MaxMessages
	if over <= 0 {
		return
	}
	// Copy down instead of reslicing so the dropped head can be collected.
	kept := make([]Message, MaxMessages, MaxMessages+1)
	copy(kept, b.messages[over:])
	b.messages = kept
}
