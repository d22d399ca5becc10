// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatbot

import (
	"encoding/json"

	"github.com/jeranaias/chatwidget/internal/model"
)

// Endpoint paths, relative to the base URL.
const (
	PathTest          = "/api/chatbot/test"
	PathMessage       = "/api/chatbot/message"
	PathConversations = "/api/chatbot/conversations"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ExchangeRequest is the body of POST /api/chatbot/message.
// ConversationHistory holds every turn strictly before Question.
type ExchangeRequest struct {
	Question            string          `json:"question"`
	ConversationHistory []model.Message `json:"conversation_history"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// replyFields are the reply field names the service has used, in priority order.
var replyFields = []string{"response", "answer", "message"}

// ExchangeResponse is the raw body of a successful exchange. Fields are kept
// undecoded because the service reuses some names for non-text metadata.
type ExchangeResponse map[string]json.RawMessage

// Text returns the first of response, answer and message that holds a
// non-empty string. Fields with any other JSON type are skipped.
func (r ExchangeResponse) Text() (string, bool) {
	for _, name := range replyFields {
		raw, ok := r[name]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			continue
		}
		if text != "" {
			return text, true
		}
	}
	return "", false
}

// ServiceError is the optional body of a non-2xx response.
type ServiceError struct {
	Error string `json:"error"`
}
