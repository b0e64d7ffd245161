// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jeranaias/forgechat/internal/agent"
)

// =============================================================================
// EVENT CALLBACKS
// =============================================================================

// Events receives notifications from a running worker. Any field may be
// nil. Callbacks run on the worker goroutine; keep them fast or hand off
// to a channel.
type Events struct {
	// OnStarted fires once, before the first request is sent.
	OnStarted func(workerID string)

	// OnEvent fires for every streamed event, including the result event.
	OnEvent func(ev agent.Event)

	// OnResult fires when the backend reports the final result.
	OnResult func(res *agent.ResultInfo)

	// OnError fires when the query fails. It does not fire after Stop.
	OnError func(err error)
}

// =============================================================================
// QUERY WORKER
// =============================================================================

// QueryWorker runs a single agent query in the background.
type QueryWorker struct {
	id     string
	client *agent.Client
	prompt string
	cfg    agent.QueryConfig
	events Events

	stopped atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc

	done chan struct{}
}

// NewQueryWorker creates a worker for one query. The worker does nothing
// until Run or Start is called, and can be used only once.
func NewQueryWorker(client *agent.Client, prompt string, cfg agent.QueryConfig, events Events) *QueryWorker {
	return &QueryWorker{
		id:     uuid.NewString(),
		client: client,
		prompt: prompt,
		cfg:    cfg,
		events: events,
		done:   make(chan struct{}),
	}
}

// ID returns the worker's unique identifier.
func (w *QueryWorker) ID() string {
	return w.id
}

// Done is closed when the worker finishes, whether it succeeded, failed,
// or was stopped.
func (w *QueryWorker) Done() <-chan struct{} {
	return w.done
}

// Stopped reports whether Stop has been called.
func (w *QueryWorker) Stopped() bool {
	return w.stopped.Load()
}

// Stop requests cancellation. It returns immediately; wait on Done for
// the worker goroutine to exit. One event already being delivered may
// still reach OnEvent after Stop returns.
func (w *QueryWorker) Stop() {
	w.stopped.Store(true)
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()
}

// Start launches the worker on a new goroutine and returns immediately.
func (w *QueryWorker) Start(ctx context.Context) {
	go w.Run(ctx)
}

// Run executes the query synchronously, delivering callbacks as events
// stream in. It returns the query error, or nil on success or stop.
func (w *QueryWorker) Run(ctx context.Context) error {
	defer close(w.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	if w.stopped.Load() {
		return nil
	}

	if w.events.OnStarted != nil {
		w.events.OnStarted(w.id)
	}

	var result *agent.ResultInfo
	err := w.client.Query(ctx, w.prompt, w.cfg, func(ev agent.Event) {
		if w.stopped.Load() {
			return
		}
		if w.events.OnEvent != nil {
			w.events.OnEvent(ev)
		}
		if ev.IsResult() {
			result = ev.Result
		}
	})

	if w.stopped.Load() {
		return nil
	}

	if err != nil {
		// Cancellation is an abort, not a failure.
		if !errors.Is(err, context.Canceled) && w.events.OnError != nil {
			w.events.OnError(err)
		}
		return err
	}

	if result != nil && w.events.OnResult != nil {
		w.events.OnResult(result)
	}
	return nil
}
