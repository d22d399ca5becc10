// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatbot provides the HTTP client for the remote chatbot service.
//
// The service exposes three JSON endpoints under a configurable base URL:
//
//	GET  {base}/api/chatbot/test           connectivity probe
//	POST {base}/api/chatbot/message        one exchange
//	GET  {base}/api/chatbot/conversations  opaque conversation listing
//
// Every failure is reported as a *ConnectionError whose Kind tells the
// caller whether the service was unreachable, answered with an error status,
// or returned something that is not a usable reply.
//
// # Usage
//
//	client := chatbot.NewClient()
//	reply, err := client.Exchange(ctx, "http://localhost:8000", "hi", history)
//	if err != nil {
//	    fmt.Println(chatbot.UserMessage(err))
//	}
package chatbot
