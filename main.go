// chatwidget - a small terminal chat window for a question/answer service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatwidget/internal/chatbot"
	"github.com/jeranaias/chatwidget/internal/cli"
	"github.com/jeranaias/chatwidget/internal/config"
	"github.com/jeranaias/chatwidget/internal/logging"
	"github.com/jeranaias/chatwidget/internal/session"
	"github.com/jeranaias/chatwidget/internal/shell"
	"github.com/jeranaias/chatwidget/internal/ui/chat"
	"github.com/jeranaias/chatwidget/internal/ui/styles"
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd, args, err := cli.Parse(os.Args[1:])
	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		return cli.GetExitCode(err)
	}

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		return exitCode(cli.HandleVersion(os.Stdout, args), args)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := setup(args)
	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		return cli.GetExitCode(err)
	}
	defer app.close()

	if cmd != cli.CmdTUI {
		cli.ConfigureColors()
	}

	switch cmd {
	case cli.CmdTUI:
		err = runTUI(ctx, app)
	case cli.CmdAsk:
		err = cli.HandleAsk(ctx, app.env, args)
	case cli.CmdChat:
		err = cli.HandleChat(ctx, app.env)
	case cli.CmdTest:
		err = cli.HandleTest(ctx, app.env, args)
	case cli.CmdConversations:
		err = cli.HandleConversations(ctx, app.env, args)
	case cli.CmdConfig:
		err = cli.HandleConfig(app.env, args)
	case cli.CmdServe:
		err = runServe(ctx, app, args)
	}
	if err != nil {
		app.logger.Error("command failed", "command", cmd.String(), "error", err)
	}
	return exitCode(err, args)
}

// exitCode reports err on stderr and maps it to the process exit code. In
// JSON mode the command has already written its own error envelope.
func exitCode(err error, args cli.Args) int {
	if err == nil {
		return cli.ExitSuccess
	}
	if !args.JSON {
		cli.DisplayError(os.Stderr, err, false)
	}
	return cli.GetExitCode(err)
}

// =============================================================================
// APPLICATION SETUP
// =============================================================================

type app struct {
	cfg    *config.Config
	path   string
	files  *config.FileStore
	logger *logging.Logger
	env    *cli.Env
	// watch is set when settings are persisted and may be edited externally.
	watch bool
}

func (a *app) close() {
	if err := a.logger.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: log file not closed: %v\n", err)
	}
}

func setup(args cli.Args) (*app, error) {
	cfg, path, err := loadConfig(args.ConfigPath)
	if err != nil {
		return nil, err
	}
	if args.Ephemeral {
		path = ""
	}

	logger := openLogger(cfg, args.Debug)

	client := chatbot.NewClientWithConfig(&chatbot.ClientConfig{
		Timeout:   time.Duration(cfg.Network.TimeoutSecs) * time.Second,
		RateLimit: cfg.Network.RateLimit,
		RateBurst: cfg.Network.RateBurst,
		UserAgent: "chatwidget/" + cli.Version,
		Logger:    logger.Logger,
	})

	a := &app{cfg: cfg, path: path, logger: logger}

	// --url applies to this run only and is never written back.
	var store config.Store
	if args.URL != "" {
		url := chatbot.NormalizeBaseURL(args.URL)
		if err := config.ValidateAPIURL(url); err != nil {
			return nil, cli.ErrInvalidFormat("url", args.URL, "--url http://localhost:8000")
		}
		store = config.NewMemoryStore(map[string]string{
			config.KeyAPIURL: url,
			config.KeyTheme:  cfg.Theme,
		})
	} else {
		a.files = config.NewFileStore(cfg, path)
		a.watch = path != ""
		store = a.files
	}

	historyFile := ""
	if path != "" {
		historyFile = filepath.Join(filepath.Dir(path), cli.HistoryFileName)
	}

	width, _ := cli.GetTerminalSize()
	a.env = &cli.Env{
		Config:      cfg,
		ConfigPath:  path,
		Store:       store,
		Transport:   client,
		Logger:      logger.Logger,
		In:          os.Stdin,
		Out:         os.Stdout,
		Err:         os.Stderr,
		Markdown:    cli.IsStdoutTTY() && cli.ColorsEnabled(),
		Width:       width,
		HistoryFile: historyFile,
	}
	logger.Debug("startup", "config", path, "api_url_override", args.URL != "", "version", cli.Version)
	return a, nil
}

// loadConfig reads the default config location, or path when given. A
// missing file at path is fine: it is created on the first save.
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		return config.Load()
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cfg := config.Default()
		if err := config.LoadDotEnv(".env"); err != nil {
			return nil, "", err
		}
		if err := cfg.ApplyEnvOverrides(); err != nil {
			return nil, "", err
		}
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, "", fmt.Errorf("invalid config: %w", err)
		}
		return cfg, path, nil
	}
	cfg, err := config.LoadFromPath(path)
	return cfg, path, err
}

// openLogger opens the log file. Logging never stops the program: on
// failure diagnostics are dropped.
func openLogger(cfg *config.Config, debug bool) *logging.Logger {
	path := cfg.Log.Path
	if path == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return logging.Discard()
		}
		path = filepath.Join(dir, logging.FileName)
	}

	logger, err := logging.Open(path, logging.ParseLevel(cfg.Log.Level))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		return logging.Discard()
	}
	if debug {
		logger.SetDebug(true)
	}
	return logger
}

// runServe logs requests to stderr as well as the log file.
func runServe(ctx context.Context, a *app, args cli.Args) error {
	console := logging.New(os.Stderr, logging.ParseLevel(a.cfg.Log.Level))
	if args.Debug {
		console.SetDebug(true)
	}
	env := *a.env
	env.Logger = slog.New(logging.Fanout(console.Handler(), a.logger.Handler()))
	return cli.HandleServe(ctx, &env, args)
}

// =============================================================================
// WIDGET
// =============================================================================

func runTUI(ctx context.Context, a *app) error {
	window := chat.NewWindow("Chat")
	host := shell.NewHost(window, shell.DefaultCapabilities, a.logger.Logger)

	theme := session.Theme(a.cfg.Theme)
	if theme == "" {
		theme = session.Theme(styles.DetectMode())
	}

	ctrl, err := session.New(session.Options{
		Store:           a.env.Store,
		Transport:       a.env.Transport,
		Bridge:          host,
		Logger:          a.logger.Logger,
		DefaultTheme:    theme,
		Pinned:          a.cfg.Window.AlwaysOnTop,
		PanelCloseDelay: session.DefaultPanelCloseDelay,
		StatusHideDelay: session.DefaultStatusHideDelay,
	})
	if err != nil {
		return err
	}

	var updates <-chan *config.Config
	if a.watch {
		if err := os.MkdirAll(filepath.Dir(a.path), 0700); err != nil {
			a.logger.Warn("config directory unavailable; not watching", "error", err)
		} else if w, err := config.NewWatcher(a.path, 0, a.logger.Logger); err != nil {
			a.logger.Warn("config watch disabled", "error", err)
		} else {
			defer w.Close()
			updates = w.Updates()
		}
	}

	m, err := chat.New(chat.Options{
		Controller:     ctrl,
		Window:         window,
		Settings:       a.files,
		Updates:        updates,
		Logger:         a.logger.Logger,
		Context:        ctx,
		Title:          "Chat",
		Width:          a.cfg.Window.Width,
		Height:         a.cfg.Window.Height,
		ShowTimestamps: true,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(m)
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	a.logger.Info("widget started", "api_url", ctrl.APIURL(), "theme", string(ctrl.Theme()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("widget: %w", err)
	}
	a.logger.Info("widget closed", "exchanges", ctrl.Exchanges())
	return nil
}
