// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/chatwidget/internal/session"
)

func testConversation() *Conversation {
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return &Conversation{
		Title:  "Chat: *setup*",
		APIURL: "http://localhost:8000",
		Entries: []session.Entry{
			{Kind: session.EntryNotice, Text: "Hello! How can I help you today?", At: at},
			{Kind: session.EntryUser, Text: "What is Go?", At: at.Add(time.Second)},
			{Kind: session.EntryAssistant, Text: "A language.\n\n```go\nfmt.Println(1)\n```", At: at.Add(2 * time.Second)},
			{Kind: session.EntryError, Text: session.ErrorMarker + "Request timed out", At: at.Add(3 * time.Second)},
		},
		ExportedAt: at.Add(time.Hour),
	}
}

func TestMarkdownExporter_Export(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(testConversation())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"title: \"Chat: *setup*\"",
		"service: \"http://localhost:8000\"",
		"messages: 3",
		"# Chat: \\*setup\\*",
		"### [You] <sub>09:30:01</sub>",
		"### [Assistant]",
		"```go\nfmt.Println(1)\n```",
		"### [Error]",
		"> " + session.ErrorMarker + "Request timed out",
		"generator: chatwidget",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
	if strings.Contains(md, "How can I help") {
		t.Error("notices should be left out by default")
	}
}

func TestMarkdownExporter_NoMetadata(t *testing.T) {
	out, err := NewMarkdownExporter(&Options{IncludeNotices: true}).Export(testConversation())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	md := string(out)
	if strings.HasPrefix(md, "---") {
		t.Error("frontmatter written without IncludeMetadata")
	}
	if strings.Contains(md, "<sub>") {
		t.Error("timestamps written without IncludeTimestamps")
	}
	if !strings.Contains(md, "### [Notice]") {
		t.Error("IncludeNotices should keep the greeting")
	}
}

func TestExporters_Empty(t *testing.T) {
	conv := &Conversation{Entries: []session.Entry{{Kind: session.EntryNotice, Text: "hi"}}}
	for _, exp := range []Exporter{NewMarkdownExporter(nil), NewJSONExporter(nil)} {
		if _, err := exp.Export(conv); !errors.Is(err, ErrEmpty) {
			t.Errorf("%T: err = %v, want ErrEmpty", exp, err)
		}
		if _, err := exp.Export(nil); err == nil {
			t.Errorf("%T: nil conversation accepted", exp)
		}
	}
}

func TestJSONExporter_Export(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(testConversation())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var doc struct {
		Title   string `json:"title"`
		APIURL  string `json:"api_url"`
		Entries []struct {
			Kind string `json:"kind"`
			Text string `json:"text"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.APIURL != "http://localhost:8000" || len(doc.Entries) != 3 {
		t.Fatalf("doc = %+v", doc)
	}
	kinds := []string{doc.Entries[0].Kind, doc.Entries[1].Kind, doc.Entries[2].Kind}
	if strings.Join(kinds, ",") != "user,assistant,error" {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestForPath(t *testing.T) {
	tests := map[string]string{
		"a.md":       ".md",
		"a.MARKDOWN": ".md",
		"a.json":     ".json",
	}
	for path, ext := range tests {
		exp, err := ForPath(path, nil)
		if err != nil {
			t.Fatalf("ForPath(%q): %v", path, err)
		}
		if exp.FileExtension() != ext {
			t.Errorf("ForPath(%q) extension = %s, want %s", path, exp.FileExtension(), ext)
		}
	}
	if _, err := ForPath("a.html", nil); err == nil {
		t.Error("ForPath accepted .html")
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	conv := testConversation()

	path, err := WriteFile(conv, filepath.Join(dir, "out", "chat.json"), nil)
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !json.Valid(data) {
		t.Fatalf("written file unreadable: %v", err)
	}

	path, err = WriteFile(conv, dir, nil)
	if err != nil {
		t.Fatalf("WriteFile to directory failed: %v", err)
	}
	want := filepath.Join(dir, "conversation_Chat-_-setup-_20250301_103000.md")
	if path != want {
		t.Errorf("path = %s, want %s", path, want)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"":          "conversation",
		"a/b\\c:d":  "a-b-c-d",
		"two words": "two_words",
		"tab\there": "tab_here",
		"bell\a":    "bell-",
	}
	tests[strings.Repeat("x", 60)] = strings.Repeat("x", 50)
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFromTranscriptCopies(t *testing.T) {
	entries := []session.Entry{{Kind: session.EntryUser, Text: "a"}}
	conv := FromTranscript("t", "", entries)
	entries[0].Text = "changed"
	if conv.Entries[0].Text != "a" {
		t.Error("FromTranscript shares the caller's slice")
	}
	if conv.ExportedAt.IsZero() {
		t.Error("ExportedAt not set")
	}
}
