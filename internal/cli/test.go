// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/chatwidget/internal/chatbot"
	"github.com/jeranaias/chatwidget/internal/config"
)

// TestResult is the JSON form of a connection test.
type TestResult struct {
	URL       string `json:"url"`
	OK        bool   `json:"ok"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// HandleTest probes the URL given as argument, or the saved one.
func HandleTest(ctx context.Context, env *Env, args Args) error {
	url := ""
	if len(args.Positional) > 0 {
		url = chatbot.NormalizeBaseURL(args.Positional[0])
		if err := config.ValidateAPIURL(url); err != nil {
			return ErrInvalidFormat("url", url, "http://localhost:8000")
		}
	}
	if url == "" {
		saved, _ := env.Store.Get(config.KeyAPIURL)
		url = chatbot.NormalizeBaseURL(saved)
	}
	if url == "" {
		return notConfigured()
	}

	start := time.Now()
	err := env.Transport.Probe(ctx, url)
	result := TestResult{URL: url, OK: err == nil, LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		result.Error = chatbot.UserMessage(err)
		env.Logger.Info("connection test failed", "url", url, "error", err)
	}

	if args.JSON {
		if err != nil {
			_ = NewJSONErrorResponse("test", err, result).Print(env.Out)
			return err
		}
		return NewJSONResponse("test", result).Print(env.Out)
	}

	if err != nil {
		fmt.Fprintf(env.Out, "%s %s %s\n", RenderStatus(false), url, DimStyle.Render(result.Error))
		return err
	}
	fmt.Fprintf(env.Out, "%s %s %s\n", RenderStatus(true), url,
		DimStyle.Render(fmt.Sprintf("(%dms)", result.LatencyMS)))
	return nil
}
