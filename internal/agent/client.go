// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ===== CONSTANTS =====

const (
	// DefaultBaseURL is the local agent daemon address.
	DefaultBaseURL = "http://127.0.0.1:8315"

	// DefaultTimeout bounds a whole query, including agentic turns.
	DefaultTimeout = 5 * time.Minute

	// DefaultMaxRetries is the number of attempts for transient
	// failures.
	DefaultMaxRetries = 3

	// retryBaseDelay is the backoff unit; attempt n waits roughly
	// retryBaseDelay * 2^n with jitter.
	retryBaseDelay = 500 * time.Millisecond

	// queryRatePerSec throttles query submission so a runaway loop
	// cannot hammer the backend.
	queryRatePerSec = 2
	queryRateBurst  = 4
)

// sharedHTTPClient is reused across Client values for connection
// pooling. Timeouts are applied per request via context, since a
// streaming response can legitimately stay open for minutes.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	},
}

// ===== ERRORS =====

// ErrUnavailable means the backend could not be reached at all.
var ErrUnavailable = errors.New("agent backend unavailable")

// ErrRateLimited means the backend rejected the query for load
// reasons.
var ErrRateLimited = errors.New("rate limited by agent backend")

// BackendError is a non-2xx response from the agent backend.
type BackendError struct {
	Status  int
	Code    string
	Message string
}

func (e *BackendError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("agent backend error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("agent backend error %d: %s", e.Status, e.Message)
}

// Is matches ErrRateLimited for 429 responses.
func (e *BackendError) Is(target error) bool {
	return target == ErrRateLimited && e.Status == http.StatusTooManyRequests
}

// ===== CLIENT =====

// Client talks to the agent backend. It is safe for concurrent use;
// LastSessionID tracks the most recent backend session seen on any
// stream.
type Client struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	limiter    *rate.Limiter

	mu            sync.Mutex
	lastSessionID string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-query timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxRetries overrides the retry budget.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// NewClient creates a client for the backend at baseURL. An empty
// baseURL selects DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		limiter:    rate.NewLimiter(rate.Limit(queryRatePerSec), queryRateBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LastSessionID returns the backend session ID from the most recent
// result event, or "" before any query completes.
func (c *Client) LastSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSessionID
}

func (c *Client) setLastSessionID(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	c.lastSessionID = id
	c.mu.Unlock()
}

// calculateBackoff returns the delay before retry attempt n, with
// jitter to avoid thundering herds.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := time.Duration(float64(retryBaseDelay) * math.Pow(2, float64(attempt)))
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(delay) / 4))
	return delay + jitter
}

// decodeErrorResponse turns a non-2xx body into a BackendError.
func decodeErrorResponse(status int, body []byte) error {
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return &BackendError{Status: status, Code: payload.Error.Code, Message: payload.Error.Message}
	}
	msg := string(body)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &BackendError{Status: status, Message: msg}
}
