// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatwidget/internal/config"
	"github.com/jeranaias/chatwidget/internal/session"
	"github.com/jeranaias/chatwidget/internal/ui/styles"
)

// Placeholders of the message input.
const (
	placeholderReady   = "Type a message..."
	placeholderWaiting = "Waiting for reply..."
)

// Fixed rows around the transcript: header, input box, status bar.
const (
	headerHeight = 1
	inputHeight  = 3
	statusHeight = 1
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures a Model.
type Options struct {
	// Controller owns all conversation and UI state. Required.
	Controller *session.Controller
	// Window is the backend wrapped by the controller's bridge. Required.
	Window *Window

	// Settings is reloaded when Updates delivers an edited config file.
	Settings *config.FileStore
	Updates  <-chan *config.Config

	Logger  *slog.Logger
	Context context.Context

	Title string
	// Width and Height are the widget size in cells when not maximized.
	Width  int
	Height int

	ShowTimestamps bool
}

// Model is the Bubble Tea model of the widget. It holds only view state;
// everything else is read from the controller on each render.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	ctrl     *session.Controller
	window   *Window
	settings *config.FileStore
	updates  <-chan *config.Config
	logger   *slog.Logger

	themes   map[session.Theme]*styles.Theme
	keys     KeyMap
	commands map[string]Command
	cmdList  []Command

	viewport viewport.Model
	input    textinput.Model
	urlInput textinput.Model
	typing   spinner.Model
	checking spinner.Model
	help     help.Model

	title          string
	widgetWidth    int
	widgetHeight   int
	termWidth      int
	termHeight     int
	showTimestamps bool

	typingSpin   bool
	checkingSpin bool
	panelWasOpen bool
	showHelp     bool
	flash        string
}

// New creates the widget model.
func New(opts Options) (Model, error) {
	if opts.Controller == nil {
		return Model{}, errors.New("chat: controller is required")
	}
	if opts.Window == nil {
		return Model{}, errors.New("chat: window is required")
	}

	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = config.Default().Window.Width
	}
	if height <= 0 {
		height = config.Default().Window.Height
	}
	title := opts.Title
	if title == "" {
		title = "Chat"
	}

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = placeholderReady
	input.CharLimit = 4096
	input.Focus()

	urlInput := textinput.New()
	urlInput.Prompt = ""
	urlInput.Placeholder = config.DefaultAPIURL
	urlInput.CharLimit = 2048

	cmds := defaultCommands()

	m := Model{
		ctx:      ctx,
		cancel:   cancel,
		ctrl:     opts.Controller,
		window:   opts.Window,
		settings: opts.Settings,
		updates:  opts.Updates,
		logger:   logger,
		themes: map[session.Theme]*styles.Theme{
			session.ThemeLight: styles.NewTheme(styles.ModeLight),
			session.ThemeDark:  styles.NewTheme(styles.ModeDark),
		},
		keys:           DefaultKeyMap(),
		commands:       commandIndex(cmds),
		cmdList:        cmds,
		viewport:       viewport.New(width, height),
		input:          input,
		urlInput:       urlInput,
		typing:         spinner.New(spinner.WithSpinner(styles.TypingSpinner)),
		checking:       spinner.New(spinner.WithSpinner(styles.CheckingSpinner)),
		help:           help.New(),
		title:          title,
		widgetWidth:    width,
		widgetHeight:   height,
		showTimestamps: opts.ShowTimestamps,
	}
	m.help.ShowAll = true
	m.syncPanel()
	m.layout()
	m.refresh()
	return m, nil
}

// Init starts the widget: title, startup probe, cursor blink, config watch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tea.SetWindowTitle(m.window.Title()),
		func() tea.Msg { return startupMsg{} },
		m.watch(),
	)
}

// startupMsg runs the startup event from inside Update.
type startupMsg struct{}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth, m.termHeight = msg.Width, msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case startupMsg:
		return m.dispatch(session.EventStartup, session.Payload{})

	case completionMsg:
		next := m.ctrl.Apply(msg.done)
		return m.sync(m.run(next))

	case configChangedMsg:
		return m.handleConfigChanged(msg)

	case watchClosedMsg:
		return m, nil

	case spinner.TickMsg:
		return m.handleTick(msg)
	}
	return m, nil
}

// =============================================================================
// CONTROLLER BRIDGE
// =============================================================================

// dispatch sends ev to the controller and turns the outcome into commands.
func (m Model) dispatch(ev session.Event, p session.Payload) (Model, tea.Cmd) {
	m.flash = ""
	task, err := m.ctrl.Dispatch(ev, p)
	if err != nil {
		m.logger.Debug("event rejected", "event", string(ev), "error", err)
		switch {
		case errors.Is(err, session.ErrSendInProgress):
			m.flash = "Wait for the reply to finish."
		case errors.Is(err, session.ErrUnknownEvent):
			m.flash = err.Error()
		}
	}
	return m.sync(m.run(task))
}

// run executes task off the update loop. The completion comes back as a
// completionMsg.
func (m Model) run(task session.Task) tea.Cmd {
	if task == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return completionMsg{done: task(ctx)}
	}
}

// sync brings the view state in line with the controller after any change
// and collects the window commands it queued.
func (m Model) sync(cmds ...tea.Cmd) (Model, tea.Cmd) {
	cmds = append(cmds, m.syncPanel(), m.syncInput())
	m.layout()
	m.refresh()

	if m.ctrl.Sending() && !m.typingSpin {
		m.typingSpin = true
		cmds = append(cmds, m.typing.Tick)
	}
	if m.ctrl.Connection() == session.ConnChecking && !m.checkingSpin {
		m.checkingSpin = true
		cmds = append(cmds, m.checking.Tick)
	}
	if m.window.Closed() {
		m.cancel()
	}
	cmds = append(cmds, m.window.Drain())
	return m, tea.Batch(cmds...)
}

// syncPanel focuses the URL field when the settings panel opens and hands
// focus back when it closes.
func (m *Model) syncPanel() tea.Cmd {
	open := m.ctrl.PanelOpen()
	if open == m.panelWasOpen {
		return nil
	}
	m.panelWasOpen = open
	if open {
		m.urlInput.SetValue(m.ctrl.APIURL())
		m.urlInput.CursorEnd()
		m.input.Blur()
		return m.urlInput.Focus()
	}
	m.urlInput.Blur()
	if m.ctrl.Sending() {
		return nil
	}
	return m.input.Focus()
}

// syncInput disables the message input while a reply is pending.
func (m *Model) syncInput() tea.Cmd {
	if m.ctrl.Sending() {
		m.input.Blur()
		m.input.Placeholder = placeholderWaiting
		return nil
	}
	m.input.Placeholder = placeholderReady
	if m.ctrl.PanelOpen() || m.input.Focused() {
		return nil
	}
	return m.input.Focus()
}

func (m Model) handleTick(msg spinner.TickMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.ID {
	case m.typing.ID():
		if !m.ctrl.Sending() {
			m.typingSpin = false
			return m, nil
		}
		m.typing, cmd = m.typing.Update(msg)
		if m.viewport.AtBottom() {
			m.refresh()
		}
	case m.checking.ID():
		if m.ctrl.Connection() != session.ConnChecking {
			m.checkingSpin = false
			return m, nil
		}
		m.checking, cmd = m.checking.Update(msg)
	}
	return m, cmd
}

// watch waits for the next edited config file.
func (m Model) watch() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	updates := m.updates
	return func() tea.Msg {
		cfg, ok := <-updates
		if !ok {
			return watchClosedMsg{}
		}
		return configChangedMsg{cfg: cfg}
	}
}

func (m Model) handleConfigChanged(msg configChangedMsg) (tea.Model, tea.Cmd) {
	if m.settings != nil {
		m.settings.Reload(msg.cfg)
	}
	if msg.cfg != nil {
		if msg.cfg.Window.Width > 0 {
			m.widgetWidth = msg.cfg.Window.Width
		}
		if msg.cfg.Window.Height > 0 {
			m.widgetHeight = msg.cfg.Window.Height
		}
	}
	m.ctrl.SyncSettings()
	m.logger.Info("settings reloaded from disk", "api_url", m.ctrl.APIURL(), "theme", string(m.ctrl.Theme()))
	return m.sync(m.watch())
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Controller returns the wrapped controller.
func (m Model) Controller() *session.Controller { return m.ctrl }

// Size is the area the widget currently renders into.
func (m Model) Size() (int, int) { return m.size() }

// ShowingHelp reports whether the help view replaces the transcript.
func (m Model) ShowingHelp() bool { return m.showHelp }

// Flash is the transient hint shown in the status bar.
func (m Model) Flash() string { return m.flash }

// InputValue is the text in the message input.
func (m Model) InputValue() string { return m.input.Value() }

// URLValue is the text in the settings URL field.
func (m Model) URLValue() string { return m.urlInput.Value() }
