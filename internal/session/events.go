// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jeranaias/chatwidget/internal/chatbot"
	"github.com/jeranaias/chatwidget/internal/config"
	"github.com/jeranaias/chatwidget/internal/model"
	"github.com/jeranaias/chatwidget/internal/shell"
)

// Event names a UI action.
type Event string

const (
	EventStartup           Event = "startup"
	EventSend              Event = "send"
	EventClear             Event = "clear"
	EventToggleSettings    Event = "toggle-settings"
	EventCloseSettings     Event = "close-settings"
	EventSaveSettings      Event = "save-settings"
	EventTestConnection    Event = "test-connection"
	EventTogglePin         Event = "toggle-pin"
	EventToggleFullscreen  Event = "toggle-fullscreen"
	EventToggleTheme       Event = "toggle-theme"
	EventMinimize          Event = "minimize"
	EventMaximize          Event = "maximize"
	EventClose             Event = "close"
	EventListConversations Event = "list-conversations"
)

var allEvents = []Event{
	EventStartup,
	EventSend,
	EventClear,
	EventToggleSettings,
	EventCloseSettings,
	EventSaveSettings,
	EventTestConnection,
	EventTogglePin,
	EventToggleFullscreen,
	EventToggleTheme,
	EventMinimize,
	EventMaximize,
	EventClose,
	EventListConversations,
}

// Payload carries event input. Text is the message for send and the URL
// for save-settings and test-connection.
type Payload struct {
	Text string
}

// Handler reacts to one event. It may mutate the controller and return a
// Task for blocking work.
type Handler func(c *Controller, p Payload) (Task, error)

// User-visible texts.
const (
	msgConfigure        = "Please configure the API URL in settings."
	msgEnterURL         = "Please enter the API URL."
	msgSettingsSaved    = "Settings saved!"
	msgTesting          = "Testing connection..."
	msgTestOK           = "Connection successful!"
	msgTestFailed       = "Connection failed. Check the URL."
	msgNoConversations  = "No conversations yet."
	msgConversationsHdr = "Conversations:"
)

func defaultHandlers() map[Event]Handler {
	return map[Event]Handler{
		EventStartup:           handleStartup,
		EventSend:              handleSend,
		EventClear:             handleClear,
		EventToggleSettings:    handleToggleSettings,
		EventCloseSettings:     handleCloseSettings,
		EventSaveSettings:      handleSaveSettings,
		EventTestConnection:    handleTestConnection,
		EventTogglePin:         handleTogglePin,
		EventToggleFullscreen:  handleToggleFullscreen,
		EventToggleTheme:       handleToggleTheme,
		EventMinimize:          forward(shell.ActionMinimize),
		EventMaximize:          forward(shell.ActionMaximize),
		EventClose:             forward(shell.ActionClose),
		EventListConversations: handleListConversations,
	}
}

// =============================================================================
// CONVERSATION
// =============================================================================

func handleSend(c *Controller, p Payload) (Task, error) {
	text := normalizeInput(p.Text)
	if text == "" {
		return nil, nil
	}
	if c.sending {
		return nil, ErrSendInProgress
	}
	if !c.Configured() {
		c.addEntry(EntryNotice, msgConfigure)
		c.openPanel()
		return nil, ErrNotConfigured
	}

	// The history sent is everything strictly before this turn.
	history := c.buffer.Snapshot()
	c.buffer.Append(model.NewUserMessage(text))
	c.addEntry(EntryUser, text)
	c.sending = true

	base, transport, logger := c.apiURL, c.transport, c.logger
	return func(ctx context.Context) Completion {
		reply, err := transport.Exchange(ctx, base, text, history)
		return func(c *Controller) Task {
			c.sending = false
			if err != nil {
				logger.Warn("exchange failed", "error", err)
				c.lastErr = err
				c.conn = ConnOffline
				c.addEntry(EntryError, ErrorMarker+chatbot.UserMessage(err))
				return nil
			}
			c.lastErr = nil
			c.conn = ConnOnline
			c.buffer.Append(model.NewAssistantMessage(reply))
			c.addEntry(EntryAssistant, reply)
			return nil
		}
	}, nil
}

func handleClear(c *Controller, _ Payload) (Task, error) {
	if c.sending {
		return nil, ErrSendInProgress
	}
	c.buffer.Clear()
	c.lastErr = nil
	c.resetTranscript()
	return nil, nil
}

func handleListConversations(c *Controller, _ Payload) (Task, error) {
	if !c.Configured() {
		c.addEntry(EntryNotice, msgConfigure)
		c.openPanel()
		return nil, ErrNotConfigured
	}

	base, transport := c.apiURL, c.transport
	return func(ctx context.Context) Completion {
		raw, err := transport.ListConversations(ctx, base)
		return func(c *Controller) Task {
			if err != nil {
				c.lastErr = err
				c.conn = ConnOffline
				c.addEntry(EntryError, ErrorMarker+chatbot.UserMessage(err))
				return nil
			}
			c.lastErr = nil
			c.conn = ConnOnline
			c.conversations = raw
			c.addEntry(EntryNotice, formatConversations(raw))
			return nil
		}
	}, nil
}

func formatConversations(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("null")) {
		return msgNoConversations
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, trimmed, "", "  "); err != nil {
		return msgConversationsHdr + "\n" + string(trimmed)
	}
	return msgConversationsHdr + "\n" + pretty.String()
}

// =============================================================================
// SETTINGS AND CONNECTION
// =============================================================================

func handleStartup(c *Controller, _ Payload) (Task, error) {
	if c.pinned {
		c.bridge.Request(shell.Request{Action: shell.ActionSetAlwaysOnTop, Flag: true})
	}
	if !c.Configured() {
		c.conn = ConnOffline
		c.openPanel()
		return nil, nil
	}
	return c.probe(c.apiURL, false), nil
}

func handleToggleSettings(c *Controller, _ Payload) (Task, error) {
	if c.panelOpen {
		c.closePanel()
	} else {
		c.openPanel()
	}
	return nil, nil
}

func handleCloseSettings(c *Controller, _ Payload) (Task, error) {
	c.closePanel()
	return nil, nil
}

func handleSaveSettings(c *Controller, p Payload) (Task, error) {
	url := chatbot.NormalizeBaseURL(p.Text)
	if err := c.store.Set(config.KeyAPIURL, url); err != nil {
		c.setStatus("Settings not saved: "+err.Error(), StatusError)
		return nil, fmt.Errorf("save settings: %w", err)
	}
	if url != c.apiURL {
		c.conn = ConnUnknown
	}
	c.apiURL = url
	c.setStatus(msgSettingsSaved, StatusSuccess)
	c.logger.Info("settings saved", "api_url", url)
	return c.closePanelLater(), nil
}

// handleTestConnection probes the URL typed in the panel, or the saved one
// when the payload is empty.
func handleTestConnection(c *Controller, p Payload) (Task, error) {
	url := chatbot.NormalizeBaseURL(p.Text)
	if url == "" {
		url = c.apiURL
	}
	if url == "" {
		c.setStatus(msgEnterURL, StatusError)
		return c.hideStatusLater(), nil
	}
	c.setStatus(msgTesting, StatusInfo)
	return c.probe(url, true), nil
}

// probe checks url and updates the indicator. When report is set the
// result is also shown on the status line.
func (c *Controller) probe(url string, report bool) Task {
	c.conn = ConnChecking
	transport, logger := c.transport, c.logger
	return func(ctx context.Context) Completion {
		err := transport.Probe(ctx, url)
		return func(c *Controller) Task {
			if err != nil {
				logger.Info("probe failed", "url", url, "error", err)
				c.conn = ConnOffline
				if report {
					c.setStatus(msgTestFailed, StatusError)
					return c.hideStatusLater()
				}
				return nil
			}
			c.conn = ConnOnline
			if report {
				c.setStatus(msgTestOK, StatusSuccess)
				return c.hideStatusLater()
			}
			return nil
		}
	}
}

// =============================================================================
// WINDOW AND THEME
// =============================================================================

func handleTogglePin(c *Controller, _ Payload) (Task, error) {
	c.pinned = !c.pinned
	c.bridge.Request(shell.Request{Action: shell.ActionSetAlwaysOnTop, Flag: c.pinned})
	return nil, nil
}

func handleToggleFullscreen(c *Controller, _ Payload) (Task, error) {
	c.fullscreen = !c.fullscreen
	c.bridge.Request(shell.Request{Action: shell.ActionToggleFullscreen, Flag: c.fullscreen})
	return nil, nil
}

func handleToggleTheme(c *Controller, _ Payload) (Task, error) {
	c.theme = c.theme.Toggle()
	if err := c.store.Set(config.KeyTheme, string(c.theme)); err != nil {
		// The new theme still applies for this run.
		c.logger.Warn("theme not saved", "error", err)
	}
	return nil, nil
}

func forward(action shell.Action) Handler {
	return func(c *Controller, _ Payload) (Task, error) {
		c.bridge.Request(shell.Request{Action: action})
		return nil, nil
	}
}
