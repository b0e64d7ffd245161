// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPrompt(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		rules string
		want  string
	}{
		{"both", "You are helpful.", "<rules>\nBe terse\n</rules>", "You are helpful.\n\n<rules>\nBe terse\n</rules>"},
		{"base only", "You are helpful.", "", "You are helpful."},
		{"rules only", "", "<rules>\nx\n</rules>", "<rules>\nx\n</rules>"},
		{"neither", "", "", ""},
		{"whitespace trimmed", "  base  ", "  rules  ", "base\n\nrules"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSystemPrompt(tt.base, tt.rules))
		})
	}
}

func TestQueryConfigMerge(t *testing.T) {
	defaults := QueryConfig{
		Model:          "default-model",
		SystemPrompt:   "default prompt",
		MaxTurns:       10,
		PermissionMode: PermissionAcceptEdits,
	}

	merged := defaults.Merge(QueryConfig{
		Model:           "session-model",
		ResumeSessionID: "abc",
	})

	assert.Equal(t, "session-model", merged.Model)
	assert.Equal(t, "default prompt", merged.SystemPrompt, "unset fields keep defaults")
	assert.Equal(t, 10, merged.MaxTurns)
	assert.Equal(t, PermissionAcceptEdits, merged.PermissionMode)
	assert.Equal(t, "abc", merged.ResumeSessionID)

	// Merge does not mutate the receiver.
	assert.Equal(t, "default-model", defaults.Model)
}

func TestPermissionModeValid(t *testing.T) {
	for _, m := range []PermissionMode{PermissionDefault, PermissionAcceptEdits, PermissionBypass, PermissionPlan} {
		assert.True(t, m.Valid(), string(m))
	}
	assert.False(t, PermissionMode("yolo").Valid())
	assert.False(t, PermissionMode("").Valid())
}

func TestEventText(t *testing.T) {
	e := Event{
		Type: EventAssistant,
		Content: []ContentBlock{
			{Type: BlockText, Text: "hello "},
			{Type: BlockToolUse, Name: "Read"},
			{Type: BlockText, Text: "world"},
		},
	}
	assert.Equal(t, "hello world", e.Text())
	assert.Equal(t, "", Event{}.Text())
}

func TestResultTotalTokens(t *testing.T) {
	r := ResultInfo{Usage: map[string]int{"input_tokens": 120, "output_tokens": 30}}
	assert.Equal(t, 150, r.TotalTokens())
	assert.Equal(t, 0, ResultInfo{}.TotalTokens())
}
