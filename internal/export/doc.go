// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a chat transcript to a file.
//
// Supported formats are picked from the file extension:
//
//   - .md, .markdown: Markdown with optional YAML frontmatter
//   - .json: the full transcript, indented
//
// Example:
//
//	conv := export.FromTranscript("Chat", apiURL, ctrl.Transcript())
//	path, err := export.WriteFile(conv, "chat.md", export.DefaultOptions())
package export
