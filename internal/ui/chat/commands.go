// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatwidget/internal/session"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// CommandHandler handles one slash command typed into the message input.
type CommandHandler func(m Model, args []string) (Model, tea.Cmd)

// Command is a registered slash command.
type Command struct {
	Name    string
	Aliases []string
	Help    string
	Handler CommandHandler
}

func defaultCommands() []Command {
	return []Command{
		{Name: "clear", Aliases: []string{"c"}, Help: "clear the conversation", Handler: eventCommand(session.EventClear)},
		{Name: "test", Help: "test the saved connection", Handler: eventCommand(session.EventTestConnection)},
		{Name: "settings", Aliases: []string{"s"}, Help: "open or close settings", Handler: eventCommand(session.EventToggleSettings)},
		{Name: "theme", Help: "toggle light and dark", Handler: eventCommand(session.EventToggleTheme)},
		{Name: "pin", Help: "keep the window on top", Handler: eventCommand(session.EventTogglePin)},
		{Name: "fullscreen", Aliases: []string{"fs"}, Help: "toggle fullscreen", Handler: eventCommand(session.EventToggleFullscreen)},
		{Name: "conversations", Aliases: []string{"conv"}, Help: "list stored conversations", Handler: eventCommand(session.EventListConversations)},
		{Name: "help", Aliases: []string{"h", "?"}, Help: "show key bindings and commands", Handler: handleHelpCommand},
		{Name: "quit", Aliases: []string{"q", "exit"}, Help: "close the widget", Handler: eventCommand(session.EventClose)},
	}
}

// commandIndex maps names and aliases to commands.
func commandIndex(cmds []Command) map[string]Command {
	index := make(map[string]Command, len(cmds)*2)
	for _, c := range cmds {
		index[c.Name] = c
		for _, a := range c.Aliases {
			index[a] = c
		}
	}
	return index
}

// isCommand reports whether input should be parsed as a slash command.
func isCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// parseCommand splits "/name arg..." into its lowercased name and arguments.
func parseCommand(input string) (string, []string) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(input), "/"))
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

func (m Model) runCommand(input string) (Model, tea.Cmd) {
	name, args := parseCommand(input)
	cmd, ok := m.commands[name]
	if !ok {
		m.flash = "Unknown command: /" + name + " (try /help)"
		return m, nil
	}
	return cmd.Handler(m, args)
}

func eventCommand(ev session.Event) CommandHandler {
	return func(m Model, _ []string) (Model, tea.Cmd) {
		return m.dispatch(ev, session.Payload{})
	}
}

func handleHelpCommand(m Model, _ []string) (Model, tea.Cmd) {
	m.showHelp = !m.showHelp
	m.refresh()
	return m, nil
}

// commandHelp lists the commands, one per line, sorted by name.
func commandHelp(cmds []Command) string {
	sorted := append([]Command(nil), cmds...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	for i, c := range sorted {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("/" + c.Name)
		b.WriteString("  ")
		b.WriteString(c.Help)
	}
	return b.String()
}
