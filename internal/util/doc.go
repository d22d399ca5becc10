// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the widget packages: crash-safe
// file writes for the settings file and display-width aware text clipping
// for the header and status lines.
package util
