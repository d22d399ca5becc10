// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/chatwidget/internal/chatbot"
	"github.com/jeranaias/chatwidget/internal/config"
	"github.com/jeranaias/chatwidget/internal/model"
	"github.com/jeranaias/chatwidget/internal/shell"
)

// DefaultGreeting opens every transcript. It is not conversation state.
const DefaultGreeting = "Hello! How can I help you today?"

// Default delays used by the interactive front end.
const (
	DefaultPanelCloseDelay = 1500 * time.Millisecond
	DefaultStatusHideDelay = 5 * time.Second
)

var (
	// ErrSendInProgress rejects a send or clear while an exchange is in flight.
	ErrSendInProgress = errors.New("a message is already being sent")
	// ErrNotConfigured is returned when an event needs the API URL and none is set.
	ErrNotConfigured = errors.New("API URL is not configured")
	// ErrUnknownEvent is returned for events missing from the dispatch table.
	ErrUnknownEvent = errors.New("unknown event")
)

// Transport is the chatbot service as seen by the controller.
// *chatbot.Client implements it.
type Transport interface {
	Probe(ctx context.Context, baseURL string) error
	Exchange(ctx context.Context, baseURL, question string, history []model.Message) (string, error)
	ListConversations(ctx context.Context, baseURL string) (json.RawMessage, error)
}

// Completion applies the result of a Task to the controller. It runs on the
// owner's thread and may return a follow-up Task.
type Completion func(c *Controller) Task

// Task is the part of an event that may block. It must not touch the
// controller.
type Task func(ctx context.Context) Completion

// Options configures a Controller.
type Options struct {
	// Store persists apiUrl and theme. Defaults to a MemoryStore.
	Store config.Store
	// Transport is required.
	Transport Transport
	// Bridge receives window-control requests. Defaults to a Recorder.
	Bridge shell.Bridge
	Logger *slog.Logger

	// Greeting replaces DefaultGreeting. Use NoGreeting to disable it.
	Greeting string
	// DefaultTheme applies when the store has no theme. Defaults to dark.
	DefaultTheme Theme
	// Pinned is the initial always-on-top state.
	Pinned bool

	// PanelCloseDelay is how long the settings panel stays open after a
	// save. Zero closes it immediately.
	PanelCloseDelay time.Duration
	// StatusHideDelay is how long a connection test result stays visible.
	// Zero keeps it until replaced.
	StatusHideDelay time.Duration

	// Clock stamps transcript entries. Defaults to time.Now.
	Clock func() time.Time
}

// NoGreeting disables the greeting when set as Options.Greeting.
const NoGreeting = "\x00"

// Controller is the widget's single source of UI and conversation state.
type Controller struct {
	store     config.Store
	transport Transport
	bridge    shell.Bridge
	logger    *slog.Logger
	clock     func() time.Time
	handlers  map[Event]Handler

	greeting        string
	panelCloseDelay time.Duration
	statusHideDelay time.Duration

	buffer     *model.Buffer
	transcript []Entry

	apiURL     string
	sending    bool
	panelOpen  bool
	fullscreen bool
	pinned     bool
	theme      Theme
	conn       ConnState
	status     Status

	// Generations invalidate delayed completions that were overtaken.
	statusGen int
	panelGen  int

	conversations json.RawMessage
	lastErr       error
}

// New builds a controller and loads apiUrl and theme from the store.
func New(opts Options) (*Controller, error) {
	if opts.Transport == nil {
		return nil, errors.New("session: transport is required")
	}

	c := &Controller{
		store:           opts.Store,
		transport:       opts.Transport,
		bridge:          opts.Bridge,
		logger:          opts.Logger,
		clock:           opts.Clock,
		greeting:        opts.Greeting,
		panelCloseDelay: opts.PanelCloseDelay,
		statusHideDelay: opts.StatusHideDelay,
		pinned:          opts.Pinned,
		theme:           opts.DefaultTheme,
		buffer:          model.NewBuffer(),
	}
	if c.store == nil {
		c.store = config.NewMemoryStore(nil)
	}
	if c.bridge == nil {
		c.bridge = &shell.Recorder{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	if c.greeting == "" {
		c.greeting = DefaultGreeting
	}
	if c.theme != ThemeLight {
		c.theme = ThemeDark
	}

	c.handlers = defaultHandlers()
	c.SyncSettings()
	c.resetTranscript()
	return c, nil
}

// SyncSettings re-reads apiUrl and theme from the store, for example after
// the config file was edited by another process.
func (c *Controller) SyncSettings() {
	url, _ := c.store.Get(config.KeyAPIURL)
	c.apiURL = chatbot.NormalizeBaseURL(url)
	if theme, ok := c.store.Get(config.KeyTheme); ok && config.ValidTheme(theme) {
		c.theme = Theme(theme)
	}
}

// =============================================================================
// DISPATCH
// =============================================================================

// Dispatch runs the handler for ev. The returned Task, when non-nil, must be
// executed and its Completion applied with Apply.
func (c *Controller) Dispatch(ev Event, p Payload) (Task, error) {
	h, ok := c.handlers[ev]
	if !ok {
		return nil, ErrUnknownEvent
	}
	c.logger.Debug("dispatch", "event", string(ev))
	return h(c, p)
}

// Apply runs a completion on the owner's thread.
func (c *Controller) Apply(done Completion) Task {
	if done == nil {
		return nil
	}
	return done(c)
}

// Run dispatches ev and drives its tasks to the end on the calling goroutine.
func (c *Controller) Run(ctx context.Context, ev Event, p Payload) error {
	task, err := c.Dispatch(ev, p)
	if err != nil {
		return err
	}
	for task != nil {
		task = c.Apply(task(ctx))
	}
	return nil
}

// SendMessage submits text and waits for the exchange to finish. Transport
// failures are rendered in the transcript, not returned; see LastError.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	return c.Run(ctx, EventSend, Payload{Text: text})
}

// Events lists the events the controller handles.
func (c *Controller) Events() []Event {
	events := make([]Event, 0, len(c.handlers))
	for _, ev := range allEvents {
		if _, ok := c.handlers[ev]; ok {
			events = append(events, ev)
		}
	}
	return events
}

// =============================================================================
// STATE ACCESSORS
// =============================================================================

// History returns a copy of the conversation buffer.
func (c *Controller) History() []model.Message { return c.buffer.Snapshot() }

// Transcript returns a copy of the rendered chat.
func (c *Controller) Transcript() []Entry {
	out := make([]Entry, len(c.transcript))
	copy(out, c.transcript)
	return out
}

func (c *Controller) APIURL() string { return c.apiURL }
func (c *Controller) Configured() bool { return c.apiURL != "" }
func (c *Controller) Sending() bool { return c.sending }
func (c *Controller) PanelOpen() bool { return c.panelOpen }
func (c *Controller) Fullscreen() bool { return c.fullscreen }
func (c *Controller) Pinned() bool { return c.pinned }
func (c *Controller) Theme() Theme { return c.theme }
func (c *Controller) Connection() ConnState { return c.conn }
func (c *Controller) Status() Status { return c.status }
func (c *Controller) LastError() error { return c.lastErr }
func (c *Controller) Greeting() string { return c.greeting }
func (c *Controller) Exchanges() int { return c.buffer.Exchanges() }
func (c *Controller) Conversations() []byte { return append([]byte(nil), c.conversations...) }

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

func (c *Controller) addEntry(kind EntryKind, text string) {
	c.transcript = append(c.transcript, Entry{Kind: kind, Text: text, At: c.clock()})
}

func (c *Controller) resetTranscript() {
	c.transcript = nil
	if c.greeting != NoGreeting {
		c.addEntry(EntryNotice, c.greeting)
	}
}

func (c *Controller) setStatus(text string, kind StatusKind) {
	c.statusGen++
	c.status = Status{Text: text, Kind: kind}
}

// hideStatusLater clears the current status after the hide delay unless a
// newer status replaced it first.
func (c *Controller) hideStatusLater() Task {
	if c.statusHideDelay <= 0 {
		return nil
	}
	gen := c.statusGen
	return after(c.statusHideDelay, func(c *Controller) Task {
		if c.statusGen == gen {
			c.status = Status{}
		}
		return nil
	})
}

func (c *Controller) openPanel() {
	c.panelGen++
	c.panelOpen = true
}

func (c *Controller) closePanel() {
	c.panelGen++
	c.panelOpen = false
}

// closePanelLater closes the panel after the close delay unless the user
// toggled it in the meantime. The status shown in the panel goes with it.
func (c *Controller) closePanelLater() Task {
	if c.panelCloseDelay <= 0 {
		c.closePanel()
		return nil
	}
	c.panelGen++
	gen, statusGen := c.panelGen, c.statusGen
	return after(c.panelCloseDelay, func(c *Controller) Task {
		if c.panelGen == gen {
			c.closePanel()
			if c.statusGen == statusGen {
				c.status = Status{}
			}
		}
		return nil
	})
}

// after waits d, or until ctx ends, then yields done.
func after(d time.Duration, done Completion) Task {
	return func(ctx context.Context) Completion {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		return done
	}
}

// normalizeInput trims and NFC-normalizes user text, so that composed and
// decomposed accents reach the service identically.
func normalizeInput(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
