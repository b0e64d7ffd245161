// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists chat sessions as JSON files on disk.
//
// Each session lives in its own file named <id>.json under the store
// directory. Writes are atomic (temp file, fsync, rename), so a crash
// mid-save leaves either the old or the new session file, never a
// torn one. A small recent.json index tracks the most recently used
// session IDs.
package store
