// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatwidget/internal/chatbot"
	"github.com/jeranaias/chatwidget/internal/config"
	"github.com/jeranaias/chatwidget/internal/model"
	"github.com/jeranaias/chatwidget/internal/session"
	"github.com/jeranaias/chatwidget/internal/shell"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type stubTransport struct {
	mu       sync.Mutex
	reply    string
	err      error
	probeErr error
	listing  json.RawMessage
	asked    []string
}

func (s *stubTransport) Probe(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probeErr
}

func (s *stubTransport) Exchange(_ context.Context, _, question string, _ []model.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, question)
	return s.reply, s.err
}

func (s *stubTransport) ListConversations(context.Context, string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listing, nil
}

type fixture struct {
	m     Model
	win   *Window
	store config.Store
	tr    *stubTransport
}

func newFixture(t *testing.T, url string, caps ...shell.Action) *fixture {
	t.Helper()
	if len(caps) == 0 {
		caps = shell.DefaultCapabilities
	}
	tr := &stubTransport{reply: "pong"}
	win := NewWindow("Chat")
	store := config.NewMemoryStore(map[string]string{config.KeyAPIURL: url})
	ctrl, err := session.New(session.Options{
		Store:     store,
		Transport: tr,
		Bridge:    shell.NewHost(win, caps, nil),
	})
	require.NoError(t, err)

	m, err := New(Options{Controller: ctrl, Window: win})
	require.NoError(t, err)
	return &fixture{m: steady(m), win: win, store: store, tr: tr}
}

// steady stops cursor blinking so that focus changes return no timers.
func steady(m Model) Model {
	m.input.Cursor.SetMode(cursor.CursorStatic)
	m.urlInput.Cursor.SetMode(cursor.CursorStatic)
	return m
}

// runCmd executes cmd and flattens batches. Commands that block, such as
// the config watch, are dropped.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(2 * time.Second):
		return nil
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// settle feeds task completions back into the model until none are left.
func settle(m Model, cmd tea.Cmd) (Model, []tea.Msg) {
	var seen []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, msg := range runCmd(next) {
			seen = append(seen, msg)
			if done, ok := msg.(completionMsg); ok {
				updated, c := m.Update(done)
				m = updated.(Model)
				queue = append(queue, c)
			}
		}
	}
	return m, seen
}

func press(m Model, msg tea.Msg) (Model, []tea.Msg) {
	updated, cmd := m.Update(msg)
	return settle(updated.(Model), cmd)
}

func typeText(m Model, s string) Model {
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func keyOf(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func hasQuit(msgs []tea.Msg) bool {
	for _, msg := range msgs {
		if _, ok := msg.(tea.QuitMsg); ok {
			return true
		}
	}
	return false
}

func transcriptTexts(m Model) []string {
	var out []string
	for _, e := range m.Controller().Transcript() {
		out = append(out, e.Text)
	}
	return out
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNew_RequiresControllerAndWindow(t *testing.T) {
	_, err := New(Options{Window: NewWindow("x")})
	require.Error(t, err)

	ctrl, err := session.New(session.Options{Transport: &stubTransport{}})
	require.NoError(t, err)
	_, err = New(Options{Controller: ctrl})
	require.Error(t, err)
}

func TestInit_RunsStartupProbe(t *testing.T) {
	f := newFixture(t, "http://bot.test")
	m, msgs := settle(f.m, f.m.Init())
	for _, msg := range msgs {
		if _, ok := msg.(startupMsg); ok {
			updated, cmd := m.Update(msg)
			m, _ = settle(updated.(Model), cmd)
		}
	}
	require.Equal(t, session.ConnOnline, m.Controller().Connection())
}

// =============================================================================
// SENDING
// =============================================================================

func TestSend_RoundTrip(t *testing.T) {
	f := newFixture(t, "http://bot.test")
	m := typeText(f.m, "hello")
	require.Equal(t, "hello", m.InputValue())

	updated, cmd := m.Update(keyOf(tea.KeyEnter))
	m = updated.(Model)
	require.True(t, m.Controller().Sending())
	require.Empty(t, m.InputValue())
	require.Contains(t, m.View(), placeholderWaiting)

	m, _ = settle(m, cmd)
	require.False(t, m.Controller().Sending())
	require.Equal(t, []string{"hello"}, f.tr.asked)
	require.Contains(t, transcriptTexts(m), "pong")
	require.Contains(t, m.View(), "pong")
	require.Contains(t, m.View(), "1 exchange")
}

func TestSend_FailureShowsErrorEntry(t *testing.T) {
	f := newFixture(t, "http://bot.test")
	f.tr.err = &chatbot.ConnectionError{Kind: chatbot.KindNetwork, Message: "Connection error. Check your settings."}

	m := typeText(f.m, "hello")
	m, _ = press(m, keyOf(tea.KeyEnter))

	texts := transcriptTexts(m)
	require.Equal(t, session.ErrorMarker+"Connection error. Check your settings.", texts[len(texts)-1])
	require.Equal(t, session.ConnOffline, m.Controller().Connection())
}

func TestSend_UnconfiguredOpensPanelAndKeepsInput(t *testing.T) {
	f := newFixture(t, "")
	m := typeText(f.m, "hello")
	m, _ = press(m, keyOf(tea.KeyEnter))

	require.True(t, m.Controller().PanelOpen())
	require.Equal(t, "hello", m.InputValue())
	require.Empty(t, f.tr.asked)
	require.Contains(t, m.View(), "API URL")
}

func TestSend_InputDisabledWhileSending(t *testing.T) {
	f := newFixture(t, "http://bot.test")
	m := typeText(f.m, "first")

	// Hold the task back so the exchange stays in flight.
	updated, _ := m.Update(keyOf(tea.KeyEnter))
	m = updated.(Model)
	require.True(t, m.Controller().Sending())

	m = typeText(m, "second")
	require.Empty(t, m.InputValue())

	m, _ = press(m, keyOf(tea.KeyEnter))
	require.Empty(t, f.tr.asked)
	require.Len(t, m.Controller().History(), 1)
}

func TestSend_WhitespaceIsIgnored(t *testing.T) {
	f := newFixture(t, "http://bot.test")
	m := typeText(f.m, "   ")
	m, _ = press(m, keyOf(tea.KeyEnter))
	require.False(t, m.Controller().Sending())
	require.Empty(t, f.tr.asked)
}

func TestClear_ResetsConversation(t *testing.T) {
	f := newFixture(t, "http://bot.test")
	m := typeText(f.m, "hello")
	m, _ = press(m, keyOf(tea.KeyEnter))
	require.Len(t, m.Controller().History(), 2)

	m, _ = press(m, keyOf(tea.KeyCtrlL))
	require.Empty(t, m.Controller().History())
	require.Equal(t, []string{session.DefaultGreeting}, transcriptTexts(m))
}

// =============================================================================
// SETTINGS PANEL
// =============================================================================

func TestSettings_SaveFromURLField(t *testing.T) {
	f := newFixture(t, "")
	m, _ := press(f.m, keyOf(tea.KeyCtrlS))
	require.True(t, m.Controller().PanelOpen())
	require.Empty(t, m.URLValue())

	m = typeText(m, "http://bot.test/")
	require.Equal(t, "http://bot.test/", m.URLValue())
	require.Empty(t, m.InputValue(), "typing goes to the URL field")

	m, _ = press(m, keyOf(tea.KeyEnter))
	require.Equal(t, "http://bot.test", m.Controller().APIURL())
	stored, _ := f.store.Get(config.KeyAPIURL)
	require.Equal(t, "http://bot.test", stored)
	require.False(t, m.Controller().PanelOpen())
	require.Contains(t, m.View(), "Settings saved!")
}

func TestSettings_PrefillsSavedURL(t *testing.T) {
	f := newFixture(t, "http://bot.test")
	m, _ := press(f.m, keyOf(tea.KeyCtrlS))
	require.Equal(t, "http://bot.test", m.URLValue())

	m, _ = press(m, keyOf(tea.KeyEsc))
	require.False(t, m.Controller().PanelOpen())
}

func TestSettings_TestUsesTypedURLWithoutSaving(t *testing.T) {
	f := newFixture(t, "")
	f.tr.probeErr = errors.New("down")

	m, _ := press(f.m, keyOf(tea.KeyCtrlS))
	m = typeText(m, "http://typed.test")
	m, _ = press(m, keyOf(tea.KeyCtrlR))

	require.Equal(t, session.Status{Text: "Connection failed. Check the URL.", Kind: session.StatusError}, m.Controller().Status())
	require.False(t, m.Controller().Configured())
	require.Contains(t, m.View(), "Connection failed")
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func TestSlashCommands(t *testing.T) {
	f := newFixture(t, "http://bot.test")
	require.Equal(t, session.ThemeDark, f.m.Controller().Theme())

	m := typeText(f.m, "/theme")
	m, _ = press(m, keyOf(tea.KeyEnter))
	require.Equal(t, session.ThemeLight, m.Controller().Theme())
	require.Empty(t, m.InputValue())
	require.Empty(t, f.tr.asked, "commands are never sent")

	m = typeText(m, "/help")
	m, _ = press(m, keyOf(tea.KeyEnter))
	require.True(t, m.ShowingHelp())
	require.Contains(t, m.View(), "/conversations")

	m, _ = press(m, keyOf(tea.KeyEsc))
	require.False(t, m.ShowingHelp())

	m = typeText(m, "/bogus")
	m, _ = press(m, keyOf(tea.KeyEnter))
	require.Contains(t, m.Flash(), "/bogus")
}

func TestSlashConversations(t *testing.T) {
	f := newFixture(t, "http://bot.test")
	f.tr.listing = json.RawMessage(`[{"id":1}]`)

	m := typeText(f.m, "/conversations")
	m, _ = press(m, keyOf(tea.KeyEnter))
	texts := transcriptTexts(m)
	require.Contains(t, texts[len(texts)-1], `"id": 1`)
}

func TestParseCommand(t *testing.T) {
	name, args := parseCommand("  /Theme dark now ")
	require.Equal(t, "theme", name)
	require.Equal(t, []string{"dark", "now"}, args)

	name, args = parseCommand("/")
	require.Empty(t, name)
	require.Nil(t, args)

	require.True(t, isCommand(" /x"))
	require.False(t, isCommand("a /x"))
}

func TestCommandIndex_Aliases(t *testing.T) {
	index := commandIndex(defaultCommands())
	require.Equal(t, "clear", index["c"].Name)
	require.Equal(t, "help", index["?"].Name)
	require.Equal(t, "fullscreen", index["fs"].Name)
}

func TestCommandHelp_Sorted(t *testing.T) {
	lines := strings.Split(commandHelp(defaultCommands()), "\n")
	require.True(t, strings.HasPrefix(lines[0], "/clear"))
	require.True(t, strings.HasPrefix(lines[len(lines)-1], "/theme"))
}

// =============================================================================
// WINDOW CONTROLS
// =============================================================================

func TestPin_MarksTitle(t *testing.T) {
	f := newFixture(t, "http://bot.test")
	m, _ := press(f.m, keyOf(tea.KeyCtrlP))
	require.True(t, m.Controller().Pinned())
	require.True(t, f.win.OnTop())
	require.Equal(t, "Chat"+PinnedMarker, f.win.Title())
	require.Contains(t, m.View(), "[pinned]")

	m, _ = press(m, keyOf(tea.KeyCtrlP))
	require.False(t, f.win.OnTop())
	require.Equal(t, "Chat", f.win.Title())
}

func TestFullscreenAndMaximize_UseTerminalSize(t *testing.T) {
	f := newFixture(t, "http://bot.test")
	m, _ := press(f.m, tea.WindowSizeMsg{Width: 120, Height: 40})
	w, h := m.Size()
	require.Equal(t, 56, w)
	require.Equal(t, 28, h)

	m, _ = press(m, keyOf(tea.KeyF11))
	require.True(t, f.win.Fullscreen())
	w, h = m.Size()
	require.Equal(t, 120, w)
	require.Equal(t, 40, h)

	m, _ = press(m, keyOf(tea.KeyF11))
	require.False(t, f.win.Fullscreen())

	m, _ = press(m, keyOf(tea.KeyCtrlX))
	require.True(t, f.win.Maximized())
	w, _ = m.Size()
	require.Equal(t, 120, w)

	m, _ = press(m, keyOf(tea.KeyCtrlX))
	w, _ = m.Size()
	require.Equal(t, 56, w)
}

func TestMinimize_CollapsesUntilKey(t *testing.T) {
	f := newFixture(t, "http://bot.test")
	m := typeText(f.m, "draft")
	m, _ = press(m, keyOf(tea.KeyCtrlN))
	require.True(t, f.win.Collapsed())
	require.Equal(t, 1, lipgloss.Height(m.View()))

	m = typeText(m, "x")
	require.False(t, f.win.Collapsed())
	require.Equal(t, "draft", m.InputValue(), "the restoring key is swallowed")
}

func TestQuit_ClosesWindow(t *testing.T) {
	f := newFixture(t, "http://bot.test")
	m, msgs := press(f.m, keyOf(tea.KeyCtrlQ))
	require.True(t, f.win.Closed())
	require.True(t, hasQuit(msgs))
	require.Empty(t, m.View())
}

func TestQuit_RefusedCloseStillQuits(t *testing.T) {
	f := newFixture(t, "http://bot.test", shell.ActionMinimize)
	_, msgs := press(f.m, keyOf(tea.KeyCtrlC))
	require.False(t, f.win.Closed())
	require.True(t, hasQuit(msgs))
}

func TestRefusedCapability_LeavesWindowAlone(t *testing.T) {
	f := newFixture(t, "http://bot.test", shell.ActionClose)
	m, _ := press(f.m, keyOf(tea.KeyF11))
	require.True(t, m.Controller().Fullscreen(), "the controller flag flips regardless")
	require.False(t, f.win.Fullscreen())
}

// =============================================================================
// LAYOUT
// =============================================================================

func TestView_FitsTerminal(t *testing.T) {
	f := newFixture(t, "http://bot.test")
	m, _ := press(f.m, tea.WindowSizeMsg{Width: 40, Height: 20})
	m = typeText(m, strings.Repeat("long words ", 20))
	m, _ = press(m, keyOf(tea.KeyEnter))
	m, _ = press(m, keyOf(tea.KeyCtrlS))

	view := m.View()
	require.LessOrEqual(t, lipgloss.Height(view), 20)
	for _, line := range strings.Split(view, "\n") {
		require.LessOrEqual(t, lipgloss.Width(line), 40)
	}
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func TestConfigChanged_AppliesExternalEdit(t *testing.T) {
	tr := &stubTransport{reply: "ok"}
	win := NewWindow("Chat")
	base := config.Default()
	base.APIURL = ""
	store := config.NewFileStore(base, "")
	ctrl, err := session.New(session.Options{Store: store, Transport: tr, Bridge: shell.NewHost(win, shell.DefaultCapabilities, nil)})
	require.NoError(t, err)

	updates := make(chan *config.Config, 1)
	m, err := New(Options{Controller: ctrl, Window: win, Settings: store, Updates: updates})
	require.NoError(t, err)
	m = steady(m)
	require.False(t, ctrl.Configured())

	edited := config.Default()
	edited.APIURL = "http://edited.test"
	edited.Theme = config.ThemeLight
	edited.Window.Width = 70

	updates <- edited
	msgs := runCmd(m.watch())
	require.Len(t, msgs, 1)

	updated, _ := m.Update(msgs[0])
	m = updated.(Model)
	require.Equal(t, "http://edited.test", ctrl.APIURL())
	require.Equal(t, session.ThemeLight, ctrl.Theme())
	w, _ := m.Size()
	require.Equal(t, 70, w)

	close(updates)
	require.Equal(t, []tea.Msg{watchClosedMsg{}}, runCmd(m.watch()))
}

// =============================================================================
// WINDOW BACKEND
// =============================================================================

func TestWindow_Drain(t *testing.T) {
	w := NewWindow("T")
	require.Nil(t, w.Drain())

	w.SetFullscreen(false)
	require.Nil(t, w.Drain(), "no change, no command")

	w.SetFullscreen(true)
	w.SetAlwaysOnTop(true)
	require.NotNil(t, w.Drain())
	require.Nil(t, w.Drain())

	w.Close()
	require.True(t, hasQuit(runCmd(w.Drain())))
}

// =============================================================================
// END TO END
// =============================================================================

func TestEndToEnd_WithHTTPService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case chatbot.PathTest:
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case chatbot.PathMessage:
			var req chatbot.ExchangeRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			_ = json.NewEncoder(w).Encode(map[string]string{"response": "echo: " + req.Question})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	win := NewWindow("Chat")
	ctrl, err := session.New(session.Options{
		Store:     config.NewMemoryStore(map[string]string{config.KeyAPIURL: srv.URL}),
		Transport: chatbot.NewClient(),
		Bridge:    shell.NewHost(win, shell.DefaultCapabilities, nil),
	})
	require.NoError(t, err)
	m, err := New(Options{Controller: ctrl, Window: win})
	require.NoError(t, err)
	m = steady(m)

	m, _ = press(m, startupMsg{})
	require.Equal(t, session.ConnOnline, ctrl.Connection())

	m = typeText(m, "hi")
	m, _ = press(m, keyOf(tea.KeyEnter))
	require.Contains(t, transcriptTexts(m), "echo: hi")
}
