// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatbot

import (
	"errors"
	"strconv"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind categorizes connection errors for handling.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnconfigured
	KindNetwork
	KindTimeout
	KindHTTPStatus
	KindInvalidResponse
)

// String returns a short name for the kind, used in logs.
func (k ErrorKind) String() string {
	switch k {
	case KindUnconfigured:
		return "unconfigured"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http_status"
	case KindInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// User-facing messages. Server supplied error text takes precedence for
// HTTP status failures.
const (
	msgUnconfigured    = "API URL is not configured"
	msgNetwork         = "Connection error. Check your settings."
	msgTimeout         = "Request timed out. Check your settings."
	msgInvalidResponse = "Invalid response from server."
)

// ConnectionError is the only error kind the client returns.
type ConnectionError struct {
	Kind ErrorKind
	// Op is the operation that failed: "probe", "exchange" or "list".
	Op string
	// Status is the HTTP status code for KindHTTPStatus, zero otherwise.
	Status  int
	Message string
	Cause   error
}

func (e *ConnectionError) Error() string {
	msg := e.Op + ": " + e.Message
	if e.Op == "" {
		msg = e.Message
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

func statusError(op string, status int, serverText string) *ConnectionError {
	msg := serverText
	if msg == "" {
		msg = "HTTP error: status " + strconv.Itoa(status)
	}
	return &ConnectionError{Kind: KindHTTPStatus, Op: op, Status: status, Message: msg}
}

// UserMessage returns the text to show in the chat for err. It never
// includes wrapped transport details.
func UserMessage(err error) string {
	var connErr *ConnectionError
	if errors.As(err, &connErr) && connErr.Message != "" {
		return connErr.Message
	}
	return msgNetwork
}

// IsConnectionError reports whether err came from the client.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	return kindOf(err) == KindTimeout
}

// IsUnconfigured checks if the call was refused for lack of a base URL.
func IsUnconfigured(err error) bool {
	return kindOf(err) == KindUnconfigured
}

// StatusCode returns the HTTP status carried by err, or zero.
func StatusCode(err error) int {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return connErr.Status
	}
	return 0
}

func kindOf(err error) ErrorKind {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return connErr.Kind
	}
	return KindUnknown
}
