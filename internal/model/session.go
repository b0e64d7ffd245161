// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTitle is used for sessions created without a title.
const DefaultSessionTitle = "New Conversation"

// ===== SESSION =====

// Session is a complete conversation: transcript, per-session query
// settings, usage statistics, and subtasks. The zero value is not
// usable; create sessions with NewSession.
type Session struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Messages  []Message         `json:"messages"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`

	// Per-session query settings. Empty values fall back to the
	// configured defaults at query time.
	Model        string   `json:"model,omitempty"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
	ToolsEnabled []string `json:"tools_enabled,omitempty"`

	// AgentSessionID is the backend's own session ID, kept so a
	// conversation can be resumed across queries.
	AgentSessionID string `json:"agent_session_id,omitempty"`

	// CustomRules is the session's rules document (XML source, not a
	// parsed form), overriding the default rules when set.
	CustomRules string `json:"custom_rules,omitempty"`

	TotalTokens int     `json:"total_tokens"`
	TotalCost   float64 `json:"total_cost"`

	Subtasks []Subtask `json:"subtasks,omitempty"`
}

// NewSession creates an empty session. An empty title is replaced
// with DefaultSessionTitle.
func NewSession(title string) *Session {
	if strings.TrimSpace(title) == "" {
		title = DefaultSessionTitle
	}
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddMessage appends a new message and bumps UpdatedAt.
func (s *Session) AddMessage(role Role, content string) *Message {
	msg := NewMessage(role, content)
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now()
	return &s.Messages[len(s.Messages)-1]
}

// LastMessage returns the most recent message, or nil for an empty
// transcript.
func (s *Session) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// AddUsage accumulates token and cost totals from a completed query.
func (s *Session) AddUsage(tokens int, cost float64) {
	s.TotalTokens += tokens
	s.TotalCost += cost
	s.UpdatedAt = time.Now()
}

// AddSubtask appends a subtask and returns a pointer to it.
func (s *Session) AddSubtask(title, description string) *Subtask {
	s.Subtasks = append(s.Subtasks, NewSubtask(title, description))
	s.UpdatedAt = time.Now()
	return &s.Subtasks[len(s.Subtasks)-1]
}

// Meta derives the lightweight listing record for this session.
func (s *Session) Meta() SessionMeta {
	return SessionMeta{
		ID:           s.ID,
		Title:        s.Title,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		MessageCount: len(s.Messages),
		TotalTokens:  s.TotalTokens,
		TotalCost:    s.TotalCost,
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	out.Subtasks = make([]Subtask, len(s.Subtasks))
	copy(out.Subtasks, s.Subtasks)
	if s.ToolsEnabled != nil {
		out.ToolsEnabled = append([]string(nil), s.ToolsEnabled...)
	}
	if s.Metadata != nil {
		out.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// ===== SESSION META =====

// SessionMeta is the lightweight record used for session listings, so
// listing does not require loading full transcripts.
type SessionMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	TotalTokens  int       `json:"total_tokens"`
	TotalCost    float64   `json:"total_cost"`
}

// ===== SUBTASK =====

// Subtask is a unit of work split off from the main task.
type Subtask struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Priority: 0 normal, 1 high, -1 low.
	Priority int `json:"priority"`
}

// NewSubtask creates a pending subtask with normal priority.
func NewSubtask(title, description string) Subtask {
	return Subtask{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		CreatedAt:   time.Now(),
	}
}

// Complete marks the subtask done, recording the completion time. It
// is idempotent.
func (t *Subtask) Complete() {
	if t.Completed {
		return
	}
	t.Completed = true
	now := time.Now()
	t.CompletedAt = &now
}
