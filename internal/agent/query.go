// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import "strings"

// ===== PERMISSION MODES =====

// PermissionMode controls how the backend handles tool permission
// prompts during an agentic query.
type PermissionMode string

const (
	// PermissionDefault prompts for every privileged tool use.
	PermissionDefault PermissionMode = "default"
	// PermissionAcceptEdits auto-approves file edits.
	PermissionAcceptEdits PermissionMode = "acceptEdits"
	// PermissionBypass skips all permission prompts.
	PermissionBypass PermissionMode = "bypassPermissions"
	// PermissionPlan runs in plan mode, no edits are applied.
	PermissionPlan PermissionMode = "plan"
)

// Valid reports whether m is a known permission mode.
func (m PermissionMode) Valid() bool {
	switch m {
	case PermissionDefault, PermissionAcceptEdits, PermissionBypass, PermissionPlan:
		return true
	}
	return false
}

// ===== QUERY CONFIG =====

// QueryConfig carries the per-query options sent to the backend.
// Zero values are omitted from the wire request and left to backend
// defaults.
type QueryConfig struct {
	Model           string         `json:"model,omitempty"`
	SystemPrompt    string         `json:"system_prompt,omitempty"`
	MaxTurns        int            `json:"max_turns,omitempty"`
	AllowedTools    []string       `json:"allowed_tools,omitempty"`
	DisallowedTools []string       `json:"disallowed_tools,omitempty"`
	PermissionMode  PermissionMode `json:"permission_mode,omitempty"`
	CWD             string         `json:"cwd,omitempty"`

	// ResumeSessionID continues an existing backend session.
	ResumeSessionID string `json:"resume_session_id,omitempty"`
}

// Merge overlays non-zero fields of other onto a copy of c. Used to
// apply per-session settings on top of configured defaults.
func (c QueryConfig) Merge(other QueryConfig) QueryConfig {
	out := c
	if other.Model != "" {
		out.Model = other.Model
	}
	if other.SystemPrompt != "" {
		out.SystemPrompt = other.SystemPrompt
	}
	if other.MaxTurns != 0 {
		out.MaxTurns = other.MaxTurns
	}
	if len(other.AllowedTools) > 0 {
		out.AllowedTools = other.AllowedTools
	}
	if len(other.DisallowedTools) > 0 {
		out.DisallowedTools = other.DisallowedTools
	}
	if other.PermissionMode != "" {
		out.PermissionMode = other.PermissionMode
	}
	if other.CWD != "" {
		out.CWD = other.CWD
	}
	if other.ResumeSessionID != "" {
		out.ResumeSessionID = other.ResumeSessionID
	}
	return out
}

// BuildSystemPrompt combines the base system prompt with a rendered
// rules block. The rules block goes last so its directives read as
// the final word. Either part may be empty.
func BuildSystemPrompt(base, rulesBlock string) string {
	base = strings.TrimSpace(base)
	rulesBlock = strings.TrimSpace(rulesBlock)
	switch {
	case base == "":
		return rulesBlock
	case rulesBlock == "":
		return base
	default:
		return base + "\n\n" + rulesBlock
	}
}

// queryRequest is the wire format of a query POST.
type queryRequest struct {
	Prompt  string      `json:"prompt"`
	Options QueryConfig `json:"options"`
}
