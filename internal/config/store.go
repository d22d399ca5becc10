// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"sync"
)

// Settings keys. Nothing else crosses a session boundary.
const (
	KeyAPIURL = "apiUrl"
	KeyTheme  = "theme"
)

// ErrUnknownKey is returned for keys other than KeyAPIURL and KeyTheme.
var ErrUnknownKey = errors.New("unknown settings key")

// Store is the persisted key-value settings surface.
type Store interface {
	// Get returns the stored value and whether one is set.
	Get(key string) (string, bool)
	// Set stores value under key.
	Set(key, value string) error
}

func checkSetting(key, value string) error {
	switch key {
	case KeyAPIURL:
		return ValidateAPIURL(value)
	case KeyTheme:
		if !ValidTheme(value) {
			return fmt.Errorf("theme must be %q or %q, got %q", ThemeLight, ThemeDark, value)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore keeps settings in a Config and saves the whole file on Set.
type FileStore struct {
	mu   sync.Mutex
	cfg  *Config
	path string
}

// NewFileStore wraps cfg. An empty path keeps changes in memory only.
func NewFileStore(cfg *Config, path string) *FileStore {
	if cfg == nil {
		cfg = Default()
	}
	return &FileStore{cfg: cfg.Clone(), path: path}
}

// Get implements Store.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch key {
	case KeyAPIURL:
		return s.cfg.APIURL, s.cfg.APIURL != ""
	case KeyTheme:
		return s.cfg.Theme, s.cfg.Theme != ""
	}
	return "", false
}

// Set implements Store. The previous value is restored if the save fails.
func (s *FileStore) Set(key, value string) error {
	if err := checkSetting(key, value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cfg.Clone()
	switch key {
	case KeyAPIURL:
		s.cfg.APIURL = value
	case KeyTheme:
		s.cfg.Theme = value
	}

	if s.path == "" {
		return nil
	}
	if err := SaveTOML(s.cfg, s.path); err != nil {
		s.cfg = prev
		return err
	}
	return nil
}

// Reload replaces the in-memory settings with those from cfg, as delivered
// by a Watcher.
func (s *FileStore) Reload(cfg *Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.APIURL = cfg.APIURL
	s.cfg.Theme = cfg.Theme
}

// Path returns the file settings are written to.
func (s *FileStore) Path() string {
	return s.path
}

// Config returns a copy of the current configuration.
func (s *FileStore) Config() *Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore is a Store that forgets everything when the process exits.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore returns a store seeded with initial, which may be nil.
func NewMemoryStore(initial map[string]string) *MemoryStore {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MemoryStore{values: values}
}

// Get implements Store.
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok && v != ""
}

// Set implements Store.
func (s *MemoryStore) Set(key, value string) error {
	if err := checkSetting(key, value); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
