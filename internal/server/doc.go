// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides a local development build of the chatbot service.
//
// It answers the same three endpoints the widget talks to, keeps every
// exchange in memory and forgets them on exit. Point the widget at it to
// try the UI without the real service.
//
// # Endpoints
//
//   - GET  /api/chatbot/test          - Connection check
//   - POST /api/chatbot/message       - Answer a question
//   - GET  /api/chatbot/conversations - Exchanges seen so far
//
// # Middleware
//
//   - Panic recovery
//   - Security headers
//   - Request logging through log/slog
//   - CORS for localhost origins
//   - Per-client rate limiting
//
// # Usage
//
//	srv := server.New(server.Options{Port: 8000, Logger: logger})
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
