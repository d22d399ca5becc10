// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/chatwidget/internal/model"
	"github.com/jeranaias/chatwidget/internal/util"
)

// DefaultMaxConversations bounds the in-memory log.
const DefaultMaxConversations = 50

// titleLength is the column width of a conversation title.
const titleLength = 48

// Conversation is one run of exchanges as the widget sent them.
type Conversation struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Messages  []model.Message `json:"messages"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ConversationLog keeps recent conversations in memory, oldest first.
//
// A message with an empty history starts a new conversation. Any other
// message continues the most recent one.
type ConversationLog struct {
	mu            sync.RWMutex
	conversations []*Conversation
	max           int
	now           func() time.Time
}

// NewConversationLog returns a log holding at most max conversations. A
// non-positive max uses DefaultMaxConversations.
func NewConversationLog(max int) *ConversationLog {
	if max <= 0 {
		max = DefaultMaxConversations
	}
	return &ConversationLog{max: max, now: time.Now}
}

// Record stores one exchange and returns the conversation it belongs to.
func (l *ConversationLog) Record(question, answer string, history []model.Message) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	var conv *Conversation
	if len(history) > 0 && len(l.conversations) > 0 {
		conv = l.conversations[len(l.conversations)-1]
	} else {
		conv = &Conversation{
			ID:        uuid.NewString(),
			Title:     conversationTitle(question),
			CreatedAt: now,
		}
		l.conversations = append(l.conversations, conv)
		if len(l.conversations) > l.max {
			l.conversations = l.conversations[len(l.conversations)-l.max:]
		}
	}

	conv.Messages = append(conv.Messages,
		model.NewUserMessage(question),
		model.NewAssistantMessage(answer),
	)
	conv.UpdatedAt = now
	return conv.ID
}

// List returns copies of the stored conversations, newest first.
func (l *ConversationLog) List() []Conversation {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Conversation, 0, len(l.conversations))
	for i := len(l.conversations) - 1; i >= 0; i-- {
		c := *l.conversations[i]
		c.Messages = append([]model.Message(nil), c.Messages...)
		out = append(out, c)
	}
	return out
}

// Len returns the number of stored conversations.
func (l *ConversationLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.conversations)
}

// conversationTitle is the first line of the opening question, clipped to
// titleLength columns.
func conversationTitle(question string) string {
	return util.TruncateWidth(util.FirstLine(question), titleLength)
}
