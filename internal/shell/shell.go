// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package shell is the narrow bridge between the chat UI and the privileged
// window host. The UI can only ask for the actions enumerated here, and
// the host only performs the ones it was granted.
package shell

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
)

// =============================================================================
// ACTIONS
// =============================================================================

// Action names one window-control request.
type Action string

const (
	ActionMinimize         Action = "minimize"
	ActionClose            Action = "close"
	ActionMaximize         Action = "maximize"
	ActionSetAlwaysOnTop   Action = "set-always-on-top"
	ActionToggleFullscreen Action = "toggle-fullscreen"
)

// Actions is the complete, fixed action set.
var Actions = []Action{
	ActionMinimize,
	ActionClose,
	ActionMaximize,
	ActionSetAlwaysOnTop,
	ActionToggleFullscreen,
}

// Known reports whether a is part of the action set.
func (a Action) Known() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// TakesFlag reports whether the action carries a boolean argument.
func (a Action) TakesFlag() bool {
	return a == ActionSetAlwaysOnTop || a == ActionToggleFullscreen
}

// Request is one fire-and-forget call across the bridge.
type Request struct {
	Action Action
	// Flag is the requested state for set-always-on-top and toggle-fullscreen.
	Flag bool
}

func (r Request) String() string {
	if r.Action.TakesFlag() {
		return fmt.Sprintf("%s(%t)", r.Action, r.Flag)
	}
	return string(r.Action)
}

// Bridge accepts window-control requests. Callers never observe a result.
type Bridge interface {
	Request(req Request)
}

// =============================================================================
// HOST
// =============================================================================

// Window is the privileged side that actually manipulates the window.
type Window interface {
	Minimize()
	Close()
	ToggleMaximize()
	SetAlwaysOnTop(on bool)
	SetFullscreen(on bool)
}

// DefaultCapabilities grants every action in the set.
var DefaultCapabilities = Actions

// Host forwards granted requests to a Window and drops everything else.
type Host struct {
	window  Window
	allowed map[Action]bool
	logger  *slog.Logger
}

// NewHost creates a host that only performs the listed capabilities.
// Capabilities outside the action set are ignored.
func NewHost(window Window, capabilities []Action, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	allowed := make(map[Action]bool, len(capabilities))
	for _, a := range capabilities {
		if a.Known() {
			allowed[a] = true
		}
	}
	return &Host{window: window, allowed: allowed, logger: logger}
}

// Allowed reports whether the host will perform a.
func (h *Host) Allowed(a Action) bool {
	return h.allowed[a]
}

// Request implements Bridge.
func (h *Host) Request(req Request) {
	if !h.allowed[req.Action] {
		h.logger.Warn("window request rejected", "action", string(req.Action))
		return
	}
	h.logger.Debug("window request", "request", req.String())

	switch req.Action {
	case ActionMinimize:
		h.window.Minimize()
	case ActionClose:
		h.window.Close()
	case ActionMaximize:
		h.window.ToggleMaximize()
	case ActionSetAlwaysOnTop:
		h.window.SetAlwaysOnTop(req.Flag)
	case ActionToggleFullscreen:
		h.window.SetFullscreen(req.Flag)
	}
}

// Info describes the host process to the UI.
type Info struct {
	Version  string
	Platform string
	Arch     string
}

// HostInfo reports the running build.
func HostInfo(version string) Info {
	return Info{Version: version, Platform: runtime.GOOS, Arch: runtime.GOARCH}
}

// =============================================================================
// RECORDER
// =============================================================================

// Recorder is a Bridge that keeps every request. Used by tests and by front
// ends without a window.
type Recorder struct {
	mu       sync.Mutex
	requests []Request
}

// Request implements Bridge.
func (r *Recorder) Request(req Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
}

// Requests returns a copy of what was recorded.
func (r *Recorder) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Request, len(r.requests))
	copy(out, r.requests)
	return out
}

// Last returns the most recent request.
func (r *Recorder) Last() (Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return Request{}, false
	}
	return r.requests[len(r.requests)-1], true
}
