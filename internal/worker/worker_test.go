// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/forgechat/internal/agent"
)

func sseHandler(events ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, e := range events {
			fmt.Fprintf(w, "data: %s\n\n", e)
		}
	}
}

func TestRunDeliversEvents(t *testing.T) {
	srv := httptest.NewServer(sseHandler(
		`{"type":"assistant","content":[{"type":"text","text":"Hello"}]}`,
		`{"type":"result","result":{"session_id":"sess-1","num_turns":1}}`,
	))
	defer srv.Close()

	var (
		startedID string
		events    []agent.Event
		result    *agent.ResultInfo
	)
	w := NewQueryWorker(agent.NewClient(srv.URL), "hi", agent.QueryConfig{}, Events{
		OnStarted: func(id string) { startedID = id },
		OnEvent:   func(ev agent.Event) { events = append(events, ev) },
		OnResult:  func(res *agent.ResultInfo) { result = res },
		OnError:   func(err error) { t.Errorf("unexpected error: %v", err) },
	})

	require.NoError(t, w.Run(context.Background()))

	assert.Equal(t, w.ID(), startedID)
	require.Len(t, events, 2)
	assert.Equal(t, "Hello", events[0].Text())
	require.NotNil(t, result)
	assert.Equal(t, "sess-1", result.SessionID)

	select {
	case <-w.Done():
	default:
		t.Error("Done should be closed after Run returns")
	}
}

func TestRunReportsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":"invalid_request","message":"bad prompt"}}`)
	}))
	defer srv.Close()

	var reported error
	w := NewQueryWorker(agent.NewClient(srv.URL), "hi", agent.QueryConfig{}, Events{
		OnError: func(err error) { reported = err },
	})

	err := w.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, err, reported)

	var be *agent.BackendError
	assert.ErrorAs(t, reported, &be)
}

func TestStopSuppressesCallbacks(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"assistant\",\"content\":[{\"type\":\"text\",\"text\":\"one\"}]}\n\n")
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	var mu sync.Mutex
	var count int
	var failed bool

	var w *QueryWorker
	w = NewQueryWorker(agent.NewClient(srv.URL, agent.WithMaxRetries(1)), "hi", agent.QueryConfig{}, Events{
		OnEvent: func(ev agent.Event) {
			mu.Lock()
			count++
			mu.Unlock()
			w.Stop()
		},
		OnError: func(err error) {
			mu.Lock()
			failed = true
			mu.Unlock()
		},
	})

	w.Start(context.Background())

	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count, "no events should be delivered after Stop")
	assert.False(t, failed, "Stop should not surface an error")
	assert.True(t, w.Stopped())
}

func TestStopBeforeRun(t *testing.T) {
	srv := httptest.NewServer(sseHandler(`{"type":"assistant","content":[{"type":"text","text":"x"}]}`))
	defer srv.Close()

	var any bool
	w := NewQueryWorker(agent.NewClient(srv.URL), "hi", agent.QueryConfig{}, Events{
		OnStarted: func(string) { any = true },
		OnEvent:   func(agent.Event) { any = true },
	})

	w.Stop()
	require.NoError(t, w.Run(context.Background()))
	assert.False(t, any, "stopped worker should not run")
}

func TestWorkerIDsAreUnique(t *testing.T) {
	a := NewQueryWorker(nil, "", agent.QueryConfig{}, Events{})
	b := NewQueryWorker(nil, "", agent.QueryConfig{}, Events{})
	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotEmpty(t, a.ID())
}
