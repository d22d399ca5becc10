// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and the settings store for
// chatwidget.
//
// # Key Types
//
//   - Config: the persisted configuration (TOML, JSON fallback)
//   - Store: key-value port for the two user settings, apiUrl and theme
//   - FileStore: Store that writes through to the config file
//   - MemoryStore: volatile Store for tests and --ephemeral runs
//   - Watcher: reports edits made to the config file by another process
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CHATWIDGET_*), including a ./.env file
//   - ~/.chatwidget/config.toml
//   - ~/.chatwidget/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, path, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store := config.NewFileStore(cfg, path)
//	store.Set(config.KeyAPIURL, "http://localhost:8000")
package config
