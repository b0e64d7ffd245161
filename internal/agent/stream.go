// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxEventSize bounds a single SSE event (256KB). Tool results can be
// large but an unbounded line is a protocol violation.
const MaxEventSize = 256 * 1024

// EventCallback receives each streamed event in order, on a single
// goroutine.
type EventCallback func(Event)

// StreamError preserves the text accumulated before a mid-stream
// failure.
type StreamError struct {
	Partial string
	Err     error
}

func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// ===== SSE READER =====

// SSEReader parses Server-Sent Events.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader wraps r for event reading.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{reader: bufio.NewReader(r)}
}

// ReadEvent returns the next event's type and data. Returns io.EOF at
// end of stream. Comment lines and unknown fields are skipped.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var eventType string
	var dataLines [][]byte
	size := 0

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			return "", nil, err
		}
		line = bytes.TrimRight(line, "\r\n")

		// Blank line ends the event.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		size += len(line)
		if size > MaxEventSize {
			return "", nil, fmt.Errorf("SSE event too large: %d bytes", size)
		}

		switch {
		case bytes.HasPrefix(line, []byte("event:")):
			eventType = string(bytes.TrimSpace(line[6:]))
		case bytes.HasPrefix(line, []byte("data:")):
			dataLines = append(dataLines, bytes.TrimSpace(line[5:]))
		}
	}
}

// ===== QUERY =====

// Query sends a prompt and streams events to callback until the
// result event arrives. The callback runs on the calling goroutine's
// stream loop; events are delivered in order, one at a time.
//
// Transport failures are retried up to the client's retry budget with
// backoff. A retry replays the request from the start, so callback may
// receive events it has already seen. 4xx responses and context
// cancellation are not retried.
func (c *Client) Query(ctx context.Context, prompt string, cfg QueryConfig, callback EventCallback) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(queryRequest{Prompt: prompt, Options: cfg})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	var lastErr error
	var accumulated bytes.Buffer

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.calculateBackoff(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/query", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Cache-Control", "no-cache")

		resp, err := sharedHTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			continue
		}

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return decodeErrorResponse(resp.StatusCode, respBody)
		}
		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = decodeErrorResponse(resp.StatusCode, respBody)
			continue
		}

		err = c.processStream(ctx, resp.Body, &accumulated, callback)
		resp.Body.Close()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			lastErr = &StreamError{Partial: accumulated.String(), Err: err}
			continue
		}
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("max retries exceeded: %w", lastErr)
	}
	return errors.New("max retries exceeded")
}

// processStream decodes events until the result event or end of
// stream.
func (c *Client) processStream(ctx context.Context, body io.Reader, accumulated *bytes.Buffer, callback EventCallback) error {
	reader := NewSSEReader(body)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if bytes.Equal(data, []byte("[DONE]")) {
			return nil
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			// A single malformed event does not kill the stream.
			continue
		}

		accumulated.WriteString(event.Text())
		if event.Type == EventResult && event.Result != nil {
			c.setLastSessionID(event.Result.SessionID)
		}

		callback(event)

		if event.IsResult() {
			return nil
		}
	}
}

// QueryChan streams events over a channel. The channel is closed when
// the stream ends; failures arrive as a final Event with Error set.
func (c *Client) QueryChan(ctx context.Context, prompt string, cfg QueryConfig) <-chan Event {
	events := make(chan Event, 64)

	go func() {
		defer close(events)

		err := c.Query(ctx, prompt, cfg, func(e Event) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		})
		if err != nil {
			select {
			case events <- Event{Error: err}:
			case <-ctx.Done():
			}
		}
	}()

	return events
}

// QueryText runs a query and returns the accumulated assistant text,
// for one-shot use.
func (c *Client) QueryText(ctx context.Context, prompt string, cfg QueryConfig) (string, *ResultInfo, error) {
	var text bytes.Buffer
	var result *ResultInfo

	err := c.Query(ctx, prompt, cfg, func(e Event) {
		if e.Type == EventAssistant {
			text.WriteString(e.Text())
		}
		if e.Type == EventResult && e.Result != nil {
			r := *e.Result
			result = &r
		}
	})
	if err != nil {
		var streamErr *StreamError
		if errors.As(err, &streamErr) && streamErr.Partial != "" {
			return streamErr.Partial, result, err
		}
		return text.String(), result, err
	}
	return text.String(), result, nil
}
