// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/chatwidget/internal/config"
	"github.com/jeranaias/chatwidget/internal/session"
	"github.com/jeranaias/chatwidget/internal/shell"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdTest
	CmdConversations
	CmdConfig
	CmdServe
	CmdVersion
	CmdHelp
)

func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdTest:
		return "test"
	case CmdConversations:
		return "conversations"
	case CmdConfig:
		return "config"
	case CmdServe:
		return "serve"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	URL        string // Overrides the saved API URL for this run
	ConfigPath string // Alternate config file
	Ephemeral  bool   // Keep settings in memory only
	Debug      bool
	JSON       bool // Output in JSON format

	// Command-specific
	Query      string
	File       string
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Plain      bool // ask: print the reply without markdown rendering
	RawJSON    bool // conversations: print the body as received
	Port       int  // serve: listen port
	Host       string
	Latency    time.Duration // serve: delay before each answer

	// Positional holds the command's positional arguments.
	Positional []string
}

const usageText = `chatwidget - a small chat window for a question/answer service

Usage:
  chatwidget                          Start the chat widget (default)
  chatwidget ask "question"           Ask a single question
  chatwidget chat                     Line-based interactive chat
  chatwidget test [URL]               Check that the service answers
  chatwidget conversations, conv      List conversations stored by the service
  chatwidget config [show|get|set|reset|path|keys]
  chatwidget serve [--port N]         Run a local development service
  chatwidget version
  chatwidget help

Global flags:
  --url URL          Use URL instead of the saved API URL
  --config PATH      Read and write settings at PATH
  --ephemeral        Do not write settings to disk
  --debug            Log at debug level
  --json             Machine-readable output (ask, test, conversations, config, version)
  -h, --help         Show this help
  -V, --version      Show version

Ask:
  chatwidget ask "What is Go?"
  chatwidget ask --file question.txt
  echo "hi" | chatwidget ask -
    --plain          Print the reply as plain text

Conversations:
    --raw            Print the response body unmodified

Config:
  chatwidget config show              Print every setting
  chatwidget config get api_url       Print one setting
  chatwidget config set theme light   Change and save one setting
  chatwidget config reset             Restore the defaults
  chatwidget config path              Print the config file path
  chatwidget config keys              List setting names

Serve:
    --port N         Listen port (default 8000)
    --host HOST      Listen address (default 127.0.0.1)
    --latency DUR    Delay every answer, e.g. 500ms

Environment:
  CHATWIDGET_API_URL, CHATWIDGET_THEME, CHATWIDGET_LOG_LEVEL and friends
  override the config file. A .env file in the working directory is read
  first. NO_COLOR disables colors.

Exit codes:
  0 success, 1 error, 2 usage, 3 configuration, 5 network, 8 timeout

Version: %s
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// VersionData is the JSON form of the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// HandleVersion prints version information.
func HandleVersion(w io.Writer, args Args) error {
	info := shell.HostInfo(Version)
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   info.Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  info.Platform + "/" + info.Arch,
		}).Print(w)
	}
	fmt.Fprintf(w, "chatwidget version %s\n", info.Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Platform:   %s/%s\n", info.Platform, info.Arch)
	return nil
}

// =============================================================================
// COMMAND ENVIRONMENT
// =============================================================================

// Env is what the non-interactive commands run against. main builds it
// once from the loaded config.
type Env struct {
	Config *config.Config
	// ConfigPath is where "config set" writes. Empty in ephemeral mode.
	ConfigPath string
	Store      config.Store
	Transport  session.Transport
	Logger     *slog.Logger

	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Markdown renders replies with glamour. Set when stdout is a terminal.
	Markdown bool
	// Width wraps rendered replies.
	Width int
	// HistoryFile keeps the chat command's input history. Empty disables it.
	HistoryFile string
}

// NewController builds a controller for a one-shot command.
func (e *Env) NewController(greeting string) (*session.Controller, error) {
	return session.New(session.Options{
		Store:        e.Store,
		Transport:    e.Transport,
		Logger:       e.Logger,
		Greeting:     greeting,
		DefaultTheme: session.Theme(e.Config.Theme),
	})
}

// =============================================================================
// PARSING
// =============================================================================

// Parse turns argv (without the program name) into a command.
func Parse(argv []string) (Command, Args, error) {
	remaining, parsed, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, parsed, err
	}

	if len(remaining) == 0 {
		return CmdTUI, parsed, nil
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]

	switch cmd {
	case "tui", "widget":
		return CmdTUI, parsed, nil

	case "ask":
		p := NewArgParser(remaining, "plain", "json")
		parsed.File = p.Flag("file")
		if parsed.File == "" {
			parsed.File = p.Flag("f")
		}
		parsed.Plain = p.BoolFlag("plain")
		parsed.JSON = parsed.JSON || p.BoolFlag("json")
		parsed.Positional = p.PositionalFrom(0)
		parsed.Query = strings.Join(parsed.Positional, " ")
		return CmdAsk, parsed, nil

	case "chat":
		return CmdChat, parsed, nil

	case "test", "ping":
		p := NewArgParser(remaining, "json")
		parsed.JSON = parsed.JSON || p.BoolFlag("json")
		parsed.Positional = p.PositionalFrom(0)
		return CmdTest, parsed, nil

	case "conversations", "conv":
		p := NewArgParser(remaining, "raw", "json")
		parsed.RawJSON = p.BoolFlag("raw")
		parsed.JSON = parsed.JSON || p.BoolFlag("json")
		return CmdConversations, parsed, nil

	case "config":
		p := NewArgParser(remaining, "json")
		parsed.JSON = parsed.JSON || p.BoolFlag("json")
		parsed.Subcommand = strings.ToLower(p.Subcommand())
		parsed.ConfigKey = p.Positional(1)
		parsed.ConfigVal = strings.Join(p.PositionalFrom(2), " ")
		parsed.Positional = p.PositionalFrom(0)
		return CmdConfig, parsed, nil

	case "serve", "server":
		p := NewArgParser(remaining)
		if p.Flag("port") != "" {
			port, err := p.FlagInt("port")
			if err != nil || port < 1 || port > 65535 {
				return CmdServe, parsed, ErrInvalidFormat("port", p.Flag("port"), "--port 8000")
			}
			parsed.Port = port
		}
		parsed.Host = p.Flag("host")
		if v := p.Flag("latency"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d < 0 {
				return CmdServe, parsed, ErrInvalidFormat("latency", v, "--latency 500ms")
			}
			parsed.Latency = d
		}
		return CmdServe, parsed, nil

	case "version":
		return CmdVersion, parsed, nil

	case "help":
		return CmdHelp, parsed, nil

	default:
		return CmdHelp, parsed, &ValidationError{
			Field:   "command",
			Value:   cmd,
			Reason:  "unknown command",
			Example: "chatwidget help",
		}
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args, error) {
	var remaining []string
	var parsed Args

	// value reads the argument following a flag, or its =value suffix.
	value := func(i *int, arg, name string) (string, error) {
		if v, ok := strings.CutPrefix(arg, name+"="); ok {
			return v, nil
		}
		if *i+1 >= len(args) {
			return "", ErrMissingArgument(name, "chatwidget "+name+" VALUE")
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		var err error

		switch {
		case arg == "--":
			remaining = append(remaining, args[i:]...)
			return remaining, parsed, nil
		case arg == "--ephemeral":
			parsed.Ephemeral = true
		case arg == "--debug":
			parsed.Debug = true
		case arg == "--json":
			parsed.JSON = true
		case arg == "-h" || arg == "--help":
			remaining = []string{"help"}
			return remaining, parsed, nil
		case arg == "-V" || arg == "--version":
			remaining = []string{"version"}
			return remaining, parsed, nil
		case arg == "--url" || strings.HasPrefix(arg, "--url="):
			parsed.URL, err = value(&i, arg, "--url")
		case arg == "--config" || strings.HasPrefix(arg, "--config="):
			parsed.ConfigPath, err = value(&i, arg, "--config")
		default:
			remaining = append(remaining, arg)
		}
		if err != nil {
			return nil, parsed, err
		}
	}

	return remaining, parsed, nil
}
