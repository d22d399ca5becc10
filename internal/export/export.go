// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/chatwidget/internal/session"
)

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("conversation has no messages")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for conversation exporters.
type Exporter interface {
	// Export converts a conversation to the target format and returns the content.
	Export(conv *Conversation) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// CONVERSATION
// =============================================================================

// Conversation is a transcript with the context it was recorded in.
type Conversation struct {
	Title      string
	APIURL     string
	Entries    []session.Entry
	ExportedAt time.Time
}

// FromTranscript wraps a controller transcript for export.
func FromTranscript(title, apiURL string, entries []session.Entry) *Conversation {
	return &Conversation{
		Title:      title,
		APIURL:     apiURL,
		Entries:    append([]session.Entry(nil), entries...),
		ExportedAt: time.Now(),
	}
}

// visible returns the entries the options keep.
func (c *Conversation) visible(opts *Options) []session.Entry {
	out := make([]session.Entry, 0, len(c.Entries))
	for _, e := range c.Entries {
		if e.Kind == session.EntryNotice && !opts.IncludeNotices {
			continue
		}
		out = append(out, e)
	}
	return out
}

// started returns the time of the first entry, or ExportedAt.
func (c *Conversation) started() time.Time {
	for _, e := range c.Entries {
		if !e.At.IsZero() {
			return e.At
		}
	}
	return c.ExportedAt
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// IncludeMetadata includes the frontmatter and session section.
	IncludeMetadata bool

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool

	// IncludeNotices keeps greeting and settings notices.
	IncludeNotices bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ForPath picks the exporter for path's extension.
func ForPath(path string, opts *Options) (Exporter, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return NewMarkdownExporter(opts), nil
	case ".json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (use .md or .json)", filepath.Ext(path))
	}
}

// WriteFile exports conv to path. A directory path, or an empty one, gets a
// generated Markdown file name. It returns the path written.
func WriteFile(conv *Conversation, path string, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if path == "" {
		path = "."
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFileName(conv, ".md"))
	}

	exporter, err := ForPath(path, opts)
	if err != nil {
		return "", err
	}
	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// DefaultFileName builds "conversation_<title>_<time><ext>".
func DefaultFileName(conv *Conversation, ext string) string {
	return fmt.Sprintf("conversation_%s_%s%s",
		sanitizeFilename(conv.Title),
		conv.ExportedAt.Format("20060102_150405"),
		ext,
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
