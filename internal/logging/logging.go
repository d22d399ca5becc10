// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging opens the chatwidget log file. The terminal belongs to the
// UI, so diagnostics go to ~/.chatwidget/chatwidget.log instead of stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the log file created inside the config directory.
const FileName = "chatwidget.log"

// Logger is a slog.Logger bound to an open log file. Its level can be
// changed while running.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	file  *os.File
	path  string
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Unknown names fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Open appends to the log file at path, creating it and its directory
// when needed.
func Open(path string, level slog.Level) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	l := newLogger(f, level)
	l.file = f
	l.path = path
	l.Info("logger initialized", "path", path, "level", level.String())
	return l, nil
}

// New writes to w without owning it.
func New(w io.Writer, level slog.Level) *Logger {
	return newLogger(w, level)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return newLogger(io.Discard, slog.LevelError)
}

func newLogger(w io.Writer, level slog.Level) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(level)
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})
	return &Logger{Logger: slog.New(handler), level: lv}
}

// SetLevel changes the minimum level.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// SetDebug switches between debug and info.
func (l *Logger) SetDebug(enabled bool) {
	if enabled {
		l.SetLevel(slog.LevelDebug)
	} else {
		l.SetLevel(slog.LevelInfo)
	}
}

// Path returns the log file path, empty for writer-backed loggers.
func (l *Logger) Path() string {
	return l.path
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}
