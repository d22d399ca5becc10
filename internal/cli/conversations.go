// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jeranaias/chatwidget/internal/session"
)

// HandleConversations prints the conversation list kept by the service.
func HandleConversations(ctx context.Context, env *Env, args Args) error {
	ctrl, err := env.NewController(session.NoGreeting)
	if err != nil {
		return err
	}
	if !ctrl.Configured() {
		return notConfigured()
	}

	if err := ctrl.Run(ctx, session.EventListConversations, session.Payload{}); err != nil {
		return err
	}
	if err := ctrl.LastError(); err != nil {
		if args.JSON {
			_ = NewJSONErrorResponse("conversations", err, nil).Print(env.Out)
		}
		return err
	}

	raw := bytes.TrimSpace(ctrl.Conversations())
	switch {
	case args.JSON:
		return NewJSONResponse("conversations", json.RawMessage(raw)).Print(env.Out)
	case args.RawJSON:
		_, err := fmt.Fprintln(env.Out, string(raw))
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		// Not JSON after all; show it as received.
		fmt.Fprintln(env.Out, string(raw))
		return nil
	}
	fmt.Fprintln(env.Out, pretty.String())
	return nil
}
