// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports conversations to JSON format. Only IncludeNotices
// filters its output; timestamps and metadata are always written.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonDocument struct {
	Title      string      `json:"title"`
	APIURL     string      `json:"api_url,omitempty"`
	ExportedAt time.Time   `json:"exported_at"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	Kind string    `json:"kind"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Export converts a conversation to JSON format.
func (e *JSONExporter) Export(conv *Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	entries := conv.visible(e.options)
	if len(entries) == 0 {
		return nil, ErrEmpty
	}

	doc := jsonDocument{
		Title:      conv.Title,
		APIURL:     conv.APIURL,
		ExportedAt: conv.ExportedAt,
		Entries:    make([]jsonEntry, 0, len(entries)),
	}
	for _, entry := range entries {
		doc.Entries = append(doc.Entries, jsonEntry{
			Kind: entry.Kind.String(),
			Text: entry.Text,
			At:   entry.At,
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
