// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jeranaias/chatwidget/internal/chatbot"
	"github.com/jeranaias/chatwidget/internal/model"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort matches the widget's default API URL.
	DefaultPort = 8000

	// DefaultHost keeps the service on the loopback interface.
	DefaultHost = "127.0.0.1"

	// maxRequestBytes caps a message request body.
	maxRequestBytes = 1 << 20
)

// ============================================================================
// RESPONDER
// ============================================================================

// Responder produces the answer to question. history holds the turns
// before it, oldest first.
type Responder func(ctx context.Context, question string, history []model.Message) (string, error)

// EchoResponder answers with the question and the size of the history.
func EchoResponder(_ context.Context, question string, history []model.Message) (string, error) {
	if len(history) == 0 {
		return "You said: " + question, nil
	}
	return fmt.Sprintf("You said: %s\n\n_(%d earlier messages)_", question, len(history)), nil
}

// ============================================================================
// SERVER
// ============================================================================

// Options configures a Server. Zero values pick the defaults.
type Options struct {
	Host string
	Port int

	// Version is reported by the test endpoint.
	Version string

	Responder        Responder
	MaxConversations int

	// Latency delays every answer, to exercise the widget's busy state.
	Latency time.Duration

	// RateLimit is requests per second per client; 0 disables limiting.
	RateLimit float64
	RateBurst int

	Logger *slog.Logger
}

// Server is the local chatbot service.
type Server struct {
	opts   Options
	log    *ConversationLog
	logger *slog.Logger

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// New creates a Server. It does not listen until Start.
func New(opts Options) *Server {
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Responder == nil {
		opts.Responder = EchoResponder
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Server{
		opts:   opts,
		log:    NewConversationLog(opts.MaxConversations),
		logger: logger,
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// URL returns the base URL clients should use.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// Conversations returns the in-memory conversation log.
func (s *Server) Conversations() *ConversationLog {
	return s.log
}

// ============================================================================
// ROUTES
// ============================================================================

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.logger),
		CORSMiddleware(DefaultCORSConfig()),
	)
	if s.opts.RateLimit > 0 {
		r.Use(RateLimitMiddleware(NewRateLimiter(s.opts.RateLimit, s.opts.RateBurst)))
	}

	r.Get(chatbot.PathTest, s.handleTest)
	r.Post(chatbot.PathMessage, s.handleMessage)
	r.Get(chatbot.PathConversations, s.handleConversations)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// ============================================================================
// HANDLERS
// ============================================================================

type testResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version,omitempty"`
	Conversations int    `json:"conversations"`
}

func (s *Server) handleTest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, testResponse{
		Status:        "ok",
		Version:       s.opts.Version,
		Conversations: s.log.Len(),
	})
}

type messageResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req chatbot.ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	if s.opts.Latency > 0 {
		select {
		case <-time.After(s.opts.Latency):
		case <-r.Context().Done():
			return
		}
	}

	answer, err := s.opts.Responder(r.Context(), question, req.ConversationHistory)
	if err != nil {
		s.logger.Warn("responder failed", "request_id", r.Header.Get("X-Request-ID"), "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	id := s.log.Record(question, answer, req.ConversationHistory)
	s.logger.Debug("message answered",
		"conversation", id,
		"history", len(req.ConversationHistory),
		"request_id", r.Header.Get("X-Request-ID"))
	writeJSON(w, http.StatusOK, messageResponse{Response: answer, ConversationID: id})
}

func (s *Server) handleConversations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.log.List())
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on Addr and serves until Shutdown. It returns nil after a
// clean shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("server started", "addr", ln.Addr().String(), "version", s.opts.Version)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server. A Serve that has not started
// yet returns at once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.logger.Info("server stopping", "conversations", s.log.Len())
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the {"error": ...} body the widget reads.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, chatbot.ServiceError{Error: message})
}
