// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatbot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatwidget/internal/model"
)

func newTestClient() *Client {
	return NewClientWithConfig(&ClientConfig{Timeout: 2 * time.Second, RateLimit: 1000, RateBurst: 1000})
}

// =============================================================================
// URL NORMALIZATION
// =============================================================================

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://x/", "http://x"},
		{"http://x", "http://x"},
		{"  http://localhost:8000//  ", "http://localhost:8000"},
		{"", ""},
		{"   ", ""},
		{"/", ""},
	}
	for _, tt := range tests {
		if got := NormalizeBaseURL(tt.in); got != tt.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// =============================================================================
// PROBE
// =============================================================================

func TestProbe_Success(t *testing.T) {
	var gotPath, gotMethod, gotAccept, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		gotAccept = r.Header.Get("Accept")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	err := newTestClient().Probe(context.Background(), server.URL+"/")
	require.NoError(t, err)
	require.Equal(t, PathTest, gotPath)
	require.Equal(t, http.MethodGet, gotMethod)
	require.Equal(t, "application/json", gotAccept)
	require.NotEmpty(t, gotRequestID)
}

func TestProbe_EmptyBodyIsFine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	require.NoError(t, newTestClient().Probe(context.Background(), server.URL))
}

func TestProbe_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    ErrorKind
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			kind:    KindHTTPStatus,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>hello</html>"))
			},
			kind: KindInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			err := newTestClient().Probe(context.Background(), server.URL)
			var connErr *ConnectionError
			require.ErrorAs(t, err, &connErr)
			require.Equal(t, tt.kind, connErr.Kind)
			require.Equal(t, "probe", connErr.Op)
		})
	}
}

func TestProbe_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := newTestClient().Probe(context.Background(), url)
	require.True(t, IsConnectionError(err))
	require.Equal(t, KindNetwork, kindOf(err))
	require.Equal(t, msgNetwork, UserMessage(err))
}

func TestProbe_Unconfigured(t *testing.T) {
	err := newTestClient().Probe(context.Background(), "  ")
	require.True(t, IsUnconfigured(err))
}

// =============================================================================
// EXCHANGE
// =============================================================================

func TestExchange_RequestShape(t *testing.T) {
	var got ExchangeRequest
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, PathMessage, r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"response":"hello"}`))
	}))
	defer server.Close()

	history := []model.Message{
		model.NewUserMessage("earlier"),
		model.NewAssistantMessage("reply"),
	}
	reply, err := newTestClient().Exchange(context.Background(), server.URL, "hi", history)
	require.NoError(t, err)
	require.Equal(t, "hello", reply)
	require.Equal(t, "application/json", contentType)
	require.Equal(t, "hi", got.Question)
	require.Equal(t, history, got.ConversationHistory)
}

func TestExchange_EmptyHistoryIsArray(t *testing.T) {
	var raw map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		w.Write([]byte(`{"answer":"ok"}`))
	}))
	defer server.Close()

	_, err := newTestClient().Exchange(context.Background(), server.URL, "hi", nil)
	require.NoError(t, err)
	require.Equal(t, "[]", string(raw["conversation_history"]))
}

func TestExchange_ReplyFieldPrecedence(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"response", `{"response":"r","answer":"a","message":"m"}`, "r"},
		{"answer", `{"answer":"a","message":"m"}`, "a"},
		{"message", `{"message":"m"}`, "m"},
		{"empty response falls through", `{"response":"","answer":"a"}`, "a"},
		{"extra fields ignored", `{"message":"m","sources":[1,2]}`, "m"},
		{"object message skipped", `{"success":true,"message":{"id":1},"response":"hi"}`, "hi"},
		{"numeric response skipped", `{"response":7,"answer":"hi"}`, "hi"},
		{"null response skipped", `{"response":null,"message":"m"}`, "m"},
		{"whitespace reply kept", `{"response":"  ","answer":"a"}`, "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			reply, err := newTestClient().Exchange(context.Background(), server.URL, "q", nil)
			require.NoError(t, err)
			require.Equal(t, tt.want, reply)
		})
	}
}

func TestExchange_NoReplyField(t *testing.T) {
	bodies := []string{
		`{"status":"ok"}`,
		`{"response":"","message":{"id":1}}`,
		`["not","an","object"]`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer server.Close()

			_, err := newTestClient().Exchange(context.Background(), server.URL, "q", nil)
			require.Equal(t, KindInvalidResponse, kindOf(err))
		})
	}
}

func TestExchange_ServerErrorText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"question is required"}`))
	}))
	defer server.Close()

	_, err := newTestClient().Exchange(context.Background(), server.URL, "q", nil)
	require.Equal(t, KindHTTPStatus, kindOf(err))
	require.Equal(t, http.StatusBadRequest, StatusCode(err))
	require.Equal(t, "question is required", UserMessage(err))
}

func TestExchange_GenericStatusText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	_, err := newTestClient().Exchange(context.Background(), server.URL, "q", nil)
	require.Equal(t, "HTTP error: status 502", UserMessage(err))
	require.True(t, strings.HasPrefix(err.Error(), "exchange: "))
}

func TestExchange_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient().Exchange(ctx, server.URL, "q", nil)
	require.True(t, IsTimeout(err), "got %v", err)
	require.Equal(t, msgTimeout, UserMessage(err))
}

// =============================================================================
// LIST CONVERSATIONS
// =============================================================================

func TestListConversations(t *testing.T) {
	payload := `{"conversations":[{"id":1,"title":"first"}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, PathConversations, r.URL.Path)
		w.Write([]byte(payload))
	}))
	defer server.Close()

	raw, err := newTestClient().ListConversations(context.Background(), server.URL)
	require.NoError(t, err)
	require.JSONEq(t, payload, string(raw))
}

func TestListConversations_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"conversations":`))
	}))
	defer server.Close()

	_, err := newTestClient().ListConversations(context.Background(), server.URL)
	require.Equal(t, KindInvalidResponse, kindOf(err))
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

func TestUserMessage_NonClientError(t *testing.T) {
	require.Equal(t, msgNetwork, UserMessage(context.Canceled))
	require.False(t, IsConnectionError(context.Canceled))
	require.Equal(t, 0, StatusCode(context.Canceled))
}

func TestErrorKind_String(t *testing.T) {
	require.Equal(t, "http_status", KindHTTPStatus.String())
	require.Equal(t, "unknown", ErrorKind(99).String())
}
