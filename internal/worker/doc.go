// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package worker runs agent queries on background goroutines.
//
// A QueryWorker owns one in-flight query. Callers receive streaming
// events through an Events callback set and can stop the worker at any
// time; stopping cancels the underlying request and suppresses further
// callbacks. Stop is cooperative, so at most one event already in
// flight may still be delivered after Stop returns.
package worker
