// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rules

import "strings"

// RenderPrompt turns a rule set into the text block injected into the
// system prompt. Disabled rules are skipped. Rules are grouped under
// one heading per category, categories always in the order of
// Categories, and within a category rules keep their order in rs.
// The whole block is wrapped in <rules>...</rules> delimiters.
//
// An empty set, or one with no enabled rules, renders as "".
func RenderPrompt(rs RuleSet) string {
	enabled := rs.Enabled()
	if len(enabled) == 0 {
		return ""
	}

	parts := []string{"<rules>"}
	for _, c := range Categories {
		group := enabled.ByCategory(c)
		if len(group) == 0 {
			continue
		}
		parts = append(parts, c.Heading())
		for _, r := range group {
			parts = append(parts, "- "+r.Name+": "+r.Content)
		}
		parts = append(parts, "")
	}
	parts = append(parts, "</rules>")

	return strings.TrimSpace(strings.Join(parts, "\n"))
}
