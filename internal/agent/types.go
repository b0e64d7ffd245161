// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import "encoding/json"

// ===== EVENT TYPES =====

// EventType identifies the kind of streamed event.
type EventType string

const (
	EventUser      EventType = "user"
	EventAssistant EventType = "assistant"
	EventSystem    EventType = "system"
	EventResult    EventType = "result"
)

// Event is one message from the agent stream.
type Event struct {
	Type    EventType      `json:"type"`
	Content []ContentBlock `json:"content,omitempty"`

	// Result is set on EventResult events only.
	Result *ResultInfo `json:"result,omitempty"`

	// Error carries stream failures on channel-based delivery. It is
	// never set by the wire decoder.
	Error error `json:"-"`
}

// Text concatenates the text blocks of the event.
func (e Event) Text() string {
	var out string
	for _, b := range e.Content {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}

// IsResult reports whether this event ends the stream.
func (e Event) IsResult() bool {
	return e.Type == EventResult
}

// HasError reports whether the event carries a stream error.
func (e Event) HasError() bool {
	return e.Error != nil
}

// ===== CONTENT BLOCKS =====

// BlockType identifies the kind of a content block.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is one piece of an assistant or user message.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// Text blocks.
	Text string `json:"text,omitempty"`

	// Tool use blocks.
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// Tool result blocks.
	ToolUseID string `json:"tool_use_id,omitempty"`
	Output    string `json:"output,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// ===== RESULT =====

// ResultInfo is the summary delivered at the end of a query.
type ResultInfo struct {
	Subtype       string         `json:"subtype,omitempty"`
	IsError       bool           `json:"is_error"`
	DurationMs    int64          `json:"duration_ms"`
	APIDurationMs int64          `json:"duration_api_ms"`
	NumTurns      int            `json:"num_turns"`
	SessionID     string         `json:"session_id"`
	TotalCostUSD  float64        `json:"total_cost_usd"`
	Usage         map[string]int `json:"usage,omitempty"`
	Text          string         `json:"result,omitempty"`
}

// TotalTokens sums the usage counters.
func (r ResultInfo) TotalTokens() int {
	total := 0
	for _, n := range r.Usage {
		total += n
	}
	return total
}
