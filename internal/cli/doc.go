// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-widget commands of
// chatwidget.
//
// # Key Types
//
//   - Command: the subcommand selected on the command line
//   - Args: parsed global and command-specific flags
//   - Env: config, settings store, transport and writers a command runs against
//   - ArgParser: flag and positional splitting shared by subcommands
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(ctx, env, args)
//	case cli.CmdChat:
//	    err = cli.HandleChat(ctx, env)
//	}
//	os.Exit(cli.GetExitCode(err))
//
// # Commands Overview
//
//   - ask: one question with an empty history, reply rendered with glamour
//   - chat: line-editing REPL over the same controller the widget uses
//   - test: probe the saved or given API URL
//   - conversations: print the service's conversation listing
//   - config: show, get, set, reset the config file
//
// Every command accepts --json and then writes a JSONResponse envelope.
package cli
