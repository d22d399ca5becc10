// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/chatwidget/internal/model"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the chatbot client.
type ClientConfig struct {
	// Timeout per request (default: 30s)
	Timeout time.Duration

	// RateLimit is the sustained requests per second allowed (default: 2)
	RateLimit float64

	// RateBurst is the token bucket size (default: 4)
	RateBurst int

	// UserAgent sent with every request (default: "chatwidget")
	UserAgent string

	// Logger receives one debug line per request (default: discard)
	Logger *slog.Logger

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:   30 * time.Second,
		RateLimit: 2,
		RateBurst: 4,
		UserAgent: "chatwidget",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the chatbot service. The base URL is passed per call so
// that a settings change takes effect on the next request without
// rebuilding the client.
//
// The Client is safe for concurrent use.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client, filling zero values with defaults.
func NewClientWithConfig(config *ClientConfig) *Client {
	cfg := *DefaultConfig()
	if config != nil {
		cfg = *config
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 4
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "chatwidget"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		logger:     logger,
	}
}

// NormalizeBaseURL trims whitespace and trailing slashes. An empty result
// means the service is not configured.
func NormalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Probe checks that the service is reachable. Any 2xx answer counts; a body,
// when present, must be valid JSON.
func (c *Client) Probe(ctx context.Context, baseURL string) error {
	body, err := c.do(ctx, "probe", http.MethodGet, baseURL, PathTest, nil)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) > 0 && !json.Valid(body) {
		return &ConnectionError{Kind: KindInvalidResponse, Op: "probe", Message: msgInvalidResponse}
	}
	return nil
}

// Exchange sends question along with the turns that precede it and returns
// the reply text. history must not contain question itself.
func (c *Client) Exchange(ctx context.Context, baseURL, question string, history []model.Message) (string, error) {
	if history == nil {
		history = []model.Message{}
	}
	payload, err := json.Marshal(ExchangeRequest{Question: question, ConversationHistory: history})
	if err != nil {
		return "", &ConnectionError{Kind: KindUnknown, Op: "exchange", Message: "failed to marshal request", Cause: err}
	}

	body, err := c.do(ctx, "exchange", http.MethodPost, baseURL, PathMessage, payload)
	if err != nil {
		return "", err
	}

	var resp ExchangeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &ConnectionError{Kind: KindInvalidResponse, Op: "exchange", Message: msgInvalidResponse, Cause: err}
	}
	text, ok := resp.Text()
	if !ok {
		return "", &ConnectionError{Kind: KindInvalidResponse, Op: "exchange", Message: msgInvalidResponse}
	}
	return text, nil
}

// ListConversations returns the service's conversation listing untouched.
func (c *Client) ListConversations(ctx context.Context, baseURL string) (json.RawMessage, error) {
	body, err := c.do(ctx, "list", http.MethodGet, baseURL, PathConversations, nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, &ConnectionError{Kind: KindInvalidResponse, Op: "list", Message: msgInvalidResponse}
	}
	return json.RawMessage(body), nil
}

// =============================================================================
// HTTP PLUMBING
// =============================================================================

// do issues one request and returns the body of a 2xx response. Every
// failure is mapped to a *ConnectionError.
func (c *Client) do(ctx context.Context, op, method, baseURL, path string, payload []byte) ([]byte, error) {
	base := NormalizeBaseURL(baseURL)
	if base == "" {
		return nil, &ConnectionError{Kind: KindUnconfigured, Op: op, Message: msgUnconfigured}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, transportError(op, err)
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, reqBody)
	if err != nil {
		return nil, &ConnectionError{Kind: KindNetwork, Op: op, Message: msgNetwork, Cause: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("chatbot request failed",
			"op", op, "method", method, "url", base+path,
			"request_id", requestID, "duration", time.Since(start), "error", err)
		return nil, transportError(op, err)
	}
	defer drainAndClose(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.logger.Debug("chatbot request",
		"op", op, "method", method, "url", base+path,
		"request_id", requestID, "status", resp.StatusCode,
		"bytes", len(body), "duration", time.Since(start))
	if err != nil {
		return nil, transportError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var svcErr ServiceError
		if json.Unmarshal(body, &svcErr) == nil && strings.TrimSpace(svcErr.Error) != "" {
			return nil, statusError(op, resp.StatusCode, svcErr.Error)
		}
		return nil, statusError(op, resp.StatusCode, "")
	}
	return body, nil
}

// transportError classifies failures that happen before a status is known.
func transportError(op string, err error) *ConnectionError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ConnectionError{Kind: KindTimeout, Op: op, Message: msgTimeout, Cause: err}
	}
	return &ConnectionError{Kind: KindNetwork, Op: op, Message: msgNetwork, Cause: err}
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
