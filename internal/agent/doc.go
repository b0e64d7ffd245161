// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package agent is the client for the agent backend service.
//
// A query is sent as a single POST and answered as a Server-Sent
// Events stream of Event values: assistant messages arrive as content
// blocks (text, tool use, tool results) and the stream ends with a
// result event carrying usage, cost, and the backend session ID used
// to resume the conversation.
//
// Transient failures are retried with exponential backoff; client
// errors (4xx) are not retried. All streaming calls honor context
// cancellation.
package agent
