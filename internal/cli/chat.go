// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/chatwidget/internal/export"
	"github.com/jeranaias/chatwidget/internal/session"
)

// HistoryFileName is the chat input history kept in the config directory.
const HistoryFileName = "chat_history"

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads one line of user input.
type LineReader interface {
	ReadInput(prompt string) (string, error)
}

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI puts the terminal into line-editing mode. An empty historyFile
// keeps history for this run only.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line and adds it to the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists history with 0600 permissions.
func (c *ChatCLI) SaveHistory() error {
	if c.historyFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = c.line.WriteHistory(f)
	return err
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() error {
	saveErr := c.SaveHistory()
	if err := c.line.Close(); err != nil {
		return err
	}
	return saveErr
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the line-based chat on the terminal.
func HandleChat(ctx context.Context, env *Env) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}
	ctrl, err := env.NewController("")
	if err != nil {
		return err
	}

	input := NewChatCLI(env.HistoryFile)
	defer func() {
		if err := input.Close(); err != nil {
			env.Logger.Warn("chat history not saved", "error", err)
		}
	}()

	return RunChat(ctx, env, ctrl, input)
}

// chatCommand is one of the REPL's slash commands.
type chatCommand struct {
	aliases []string
	help    string
	run     func(r *chatREPL, arg string) (quit bool)
}

func chatCommands() map[string]chatCommand {
	return map[string]chatCommand{
		"help":          {aliases: []string{"h", "?"}, help: "Show available commands", run: (*chatREPL).help},
		"clear":         {aliases: []string{"c"}, help: "Clear the conversation", run: (*chatREPL).clear},
		"test":          {help: "Check the connection", run: (*chatREPL).test},
		"url":           {help: "Show or save the API URL", run: (*chatREPL).url},
		"theme":         {help: "Toggle light and dark theme", run: (*chatREPL).theme},
		"conversations": {aliases: []string{"conv"}, help: "List stored conversations", run: (*chatREPL).conversations},
		"history":       {help: "Show how much history is sent", run: (*chatREPL).history},
		"export":        {help: "Save the transcript (.md or .json)", run: (*chatREPL).export},
		"quit":          {aliases: []string{"q", "exit"}, help: "Exit chat", run: func(*chatREPL, string) bool { return true }},
	}
}

type chatREPL struct {
	ctx      context.Context
	env      *Env
	ctrl     *session.Controller
	out      io.Writer
	render   *replyRenderer
	commands map[string]chatCommand
	// seen is how many transcript entries have been printed.
	seen int
}

// RunChat reads lines from in until EOF, ctrl+c or /quit and drives ctrl
// with them.
func RunChat(ctx context.Context, env *Env, ctrl *session.Controller, in LineReader) error {
	r := &chatREPL{
		ctx:      ctx,
		env:      env,
		ctrl:     ctrl,
		out:      env.Out,
		render:   env.renderer(false),
		commands: chatCommands(),
	}

	fmt.Fprintln(r.out, TitleStyle.Render("chatwidget chat"))
	if ctrl.Configured() {
		fmt.Fprintln(r.out, DimStyle.Render("Connected to "+ctrl.APIURL()+". Type /help for commands."))
	} else {
		fmt.Fprintln(r.out, DimStyle.Render("No API URL configured. Use /url URL to set one."))
	}
	r.flush()

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := in.ReadInput("you> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if r.command(line) {
				return nil
			}
			continue
		}
		r.send(line)
	}
}

func (r *chatREPL) send(text string) {
	err := r.ctrl.SendMessage(r.ctx, text)
	switch {
	case errors.Is(err, session.ErrNotConfigured):
		r.flush()
		fmt.Fprintln(r.out, DimStyle.Render("Use /url URL to set the API URL."))
		return
	case err != nil:
		fmt.Fprintln(r.out, ErrorStyle.Render(err.Error()))
	}
	r.flush()
}

// command runs a slash command and reports whether the REPL should exit.
func (r *chatREPL) command(line string) bool {
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return false
	}
	name := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "/"), fields[0]))

	for key, cmd := range r.commands {
		if key == name || containsString(cmd.aliases, name) {
			return cmd.run(r, arg)
		}
	}
	fmt.Fprintf(r.out, "%s /%s (try /help)\n", ErrorStyle.Render("Unknown command:"), name)
	return false
}

// flush prints transcript entries added since the last flush. The user's
// own lines are already on screen.
func (r *chatREPL) flush() {
	entries := r.ctrl.Transcript()
	if len(entries) < r.seen {
		r.seen = 0
	}
	for _, e := range entries[r.seen:] {
		switch e.Kind {
		case session.EntryAssistant:
			fmt.Fprintf(r.out, "%s %s\n", AssistantStyle.Render("bot>"), r.render.Render(e.Text))
		case session.EntryError:
			fmt.Fprintln(r.out, ErrorStyle.Render(e.Text))
		case session.EntryNotice:
			fmt.Fprintln(r.out, DimStyle.Render(e.Text))
		}
	}
	r.seen = len(entries)
}

// run dispatches an event and reports a rejection.
func (r *chatREPL) run(ev session.Event, p session.Payload) error {
	err := r.ctrl.Run(r.ctx, ev, p)
	if err != nil && !errors.Is(err, session.ErrNotConfigured) {
		fmt.Fprintln(r.out, ErrorStyle.Render(err.Error()))
	}
	return err
}

func (r *chatREPL) printStatus() {
	st := r.ctrl.Status()
	if st.Text == "" {
		return
	}
	style := DimStyle
	switch st.Kind {
	case session.StatusSuccess:
		style = SuccessStyle
	case session.StatusError:
		style = ErrorStyle
	}
	fmt.Fprintln(r.out, style.Render(st.Text))
}

func (r *chatREPL) help(string) bool {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := r.commands[name]
		label := "/" + name
		if len(cmd.aliases) > 0 {
			label += " (/" + strings.Join(cmd.aliases, ", /") + ")"
		}
		fmt.Fprintf(r.out, "  %s %s\n", RenderLabel(label), cmd.help)
	}
	return false
}

func (r *chatREPL) clear(string) bool {
	if r.run(session.EventClear, session.Payload{}) == nil {
		fmt.Fprintln(r.out, DimStyle.Render("Conversation cleared."))
		r.flush()
	}
	return false
}

func (r *chatREPL) test(arg string) bool {
	if r.run(session.EventTestConnection, session.Payload{Text: arg}) == nil {
		r.printStatus()
	}
	return false
}

func (r *chatREPL) url(arg string) bool {
	if arg == "" {
		current := r.ctrl.APIURL()
		if current == "" {
			current = "(not set)"
		}
		fmt.Fprintln(r.out, RenderLabel("API URL")+current)
		return false
	}
	if r.run(session.EventSaveSettings, session.Payload{Text: arg}) == nil {
		r.printStatus()
	}
	return false
}

func (r *chatREPL) theme(string) bool {
	if r.run(session.EventToggleTheme, session.Payload{}) == nil {
		fmt.Fprintln(r.out, RenderLabel("Theme")+string(r.ctrl.Theme()))
	}
	return false
}

func (r *chatREPL) conversations(string) bool {
	_ = r.run(session.EventListConversations, session.Payload{})
	r.flush()
	return false
}

func (r *chatREPL) history(string) bool {
	fmt.Fprintf(r.out, "%s%d messages (%d exchanges)\n",
		RenderLabel("History"), len(r.ctrl.History()), r.ctrl.Exchanges())
	return false
}

// export writes the transcript to arg, or to a generated file in the
// working directory.
func (r *chatREPL) export(arg string) bool {
	conv := export.FromTranscript("chatwidget chat", r.ctrl.APIURL(), r.ctrl.Transcript())
	path, err := export.WriteFile(conv, arg, export.DefaultOptions())
	if err != nil {
		fmt.Fprintln(r.out, ErrorStyle.Render("Export failed: "+err.Error()))
		return false
	}
	r.env.Logger.Info("transcript exported", "path", path, "entries", len(conv.Entries))
	fmt.Fprintf(r.out, "%s exported to %s\n", SuccessStyle.Render("[OK]"), path)
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
