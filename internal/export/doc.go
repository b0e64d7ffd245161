// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders saved sessions to JSON, Markdown, and HTML.
//
// Each format implements Exporter; For picks one by name and
// ExportToFile writes the result under a timestamped filename.
package export
