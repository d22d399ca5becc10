// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/chatwidget/internal/config"
	"github.com/jeranaias/chatwidget/internal/session"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// replyRenderer renders assistant replies for the terminal. A nil renderer
// (or a failed render) prints the text unchanged.
type replyRenderer struct {
	md *glamour.TermRenderer
}

// newReplyRenderer picks the glamour style from the theme. An empty theme
// lets glamour inspect the terminal background.
func newReplyRenderer(theme string, width int) *replyRenderer {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	styleOpt := glamour.WithAutoStyle()
	switch theme {
	case config.ThemeLight, config.ThemeDark, "notty", "ascii":
		styleOpt = glamour.WithStandardStyle(theme)
	}
	md, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return &replyRenderer{}
	}
	return &replyRenderer{md: md}
}

func (r *replyRenderer) Render(content string) string {
	if r == nil || r.md == nil {
		return content
	}
	rendered, err := r.md.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}

// renderer returns the markdown renderer when the environment allows it.
func (e *Env) renderer(plain bool) *replyRenderer {
	if plain || !e.Markdown {
		return nil
	}
	theme, _ := e.Store.Get(config.KeyTheme)
	return newReplyRenderer(theme, e.Width)
}

// =============================================================================
// ASK
// =============================================================================

// AskData is the JSON form of an answered question.
type AskData struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	APIURL   string `json:"api_url"`
}

// HandleAsk sends one question with an empty history and prints the reply.
func HandleAsk(ctx context.Context, env *Env, args Args) error {
	question, err := readQuestion(env.In, args)
	if err != nil {
		return err
	}

	ctrl, err := env.NewController(session.NoGreeting)
	if err != nil {
		return err
	}
	if !ctrl.Configured() {
		return notConfigured()
	}

	env.Logger.Debug("ask", "api_url", ctrl.APIURL(), "chars", len(question))
	if err := ctrl.SendMessage(ctx, question); err != nil {
		return err
	}
	if err := ctrl.LastError(); err != nil {
		if args.JSON {
			_ = NewJSONErrorResponse("ask", err, AskData{Question: question, APIURL: ctrl.APIURL()}).Print(env.Out)
		}
		return err
	}

	answer := lastReply(ctrl.Transcript())
	if args.JSON {
		return NewJSONResponse("ask", AskData{
			Question: question,
			Answer:   answer,
			APIURL:   ctrl.APIURL(),
		}).Print(env.Out)
	}
	fmt.Fprintln(env.Out, env.renderer(args.Plain).Render(answer))
	return nil
}

// readQuestion takes the question from --file, from stdin when the only
// argument is "-", or from the arguments.
func readQuestion(in io.Reader, args Args) (string, error) {
	var question string
	switch {
	case args.File != "":
		data, err := os.ReadFile(args.File)
		if err != nil {
			return "", NewCommandError("ask", "read", "cannot read question file", err)
		}
		question = string(data)
	case args.Query == "-":
		if in == nil {
			return "", ErrMissingArgument("question", `chatwidget ask "What is Go?"`)
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return "", NewCommandError("ask", "read", "cannot read stdin", err)
		}
		question = string(data)
	default:
		question = args.Query
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrMissingArgument("question", `chatwidget ask "What is Go?"`)
	}
	return question, nil
}

func lastReply(entries []session.Entry) string {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Kind == session.EntryAssistant {
			return entries[i].Text
		}
	}
	return ""
}

func notConfigured() error {
	return fmt.Errorf("%w: run \"chatwidget config set api_url URL\" or pass --url", session.ErrNotConfigured)
}
