// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session manages the lifecycle of the current chat session:
// creating, opening, saving, and restoring sessions through the
// store, plus dirty tracking and interval-based auto-save driven by a
// caller-owned tick.
package session
