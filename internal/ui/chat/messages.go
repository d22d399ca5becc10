// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/chatwidget/internal/config"
	"github.com/jeranaias/chatwidget/internal/session"
)

// completionMsg carries the result of a controller task back to Update.
type completionMsg struct {
	done session.Completion
}

// configChangedMsg is delivered when the settings file was edited outside
// the widget.
type configChangedMsg struct {
	cfg *config.Config
}

// watchClosedMsg ends the config watch loop.
type watchClosedMsg struct{}
