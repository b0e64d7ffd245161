// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions,
// messages, subtasks, and task templates. These types are plain data:
// persistence lives in internal/store and lifecycle management in
// internal/session.
package model
