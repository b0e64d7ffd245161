// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// TaskTemplate is a reusable prompt scaffold. Placeholders are written
// as {placeholder} and filled in with Render.
type TaskTemplate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
	Builtin     bool   `json:"builtin"`
}

// Render substitutes placeholder values into the prompt. Placeholders
// without a value are left in place so the gap stays visible.
func (t TaskTemplate) Render(values map[string]string) string {
	out := t.Prompt
	for key, value := range values {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

// Placeholders lists the {placeholder} names in the prompt, in order
// of first appearance.
func (t TaskTemplate) Placeholders() []string {
	var names []string
	seen := map[string]bool{}
	s := t.Prompt
	for {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			return names
		}
		end := strings.IndexByte(s[open:], '}')
		if end < 0 {
			return names
		}
		name := s[open+1 : open+end]
		if name != "" && !strings.ContainsAny(name, " \t\n") && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
		s = s[open+end+1:]
	}
}

// BuiltinTemplates returns the standard task templates.
func BuiltinTemplates() []TaskTemplate {
	return []TaskTemplate{
		{
			Name:        "Code Review",
			Description: "Review code for quality and best practices",
			Prompt:      "Review the code in {file_or_directory} and provide feedback on:\n- Code quality\n- Best practices\n- Potential bugs\n- Performance improvements",
			Builtin:     true,
		},
		{
			Name:        "Bug Fix",
			Description: "Fix a specific bug in the codebase",
			Prompt:      "Fix the following bug: {bug_description}\n\nSteps to reproduce:\n{reproduction_steps}\n\nExpected behavior:\n{expected_behavior}",
			Builtin:     true,
		},
		{
			Name:        "Feature Implementation",
			Description: "Implement a new feature",
			Prompt:      "Implement the following feature: {feature_description}\n\nRequirements:\n{requirements}\n\nAcceptance criteria:\n{criteria}",
			Builtin:     true,
		},
		{
			Name:        "Refactoring",
			Description: "Refactor code for better structure",
			Prompt:      "Refactor {code_area} to:\n- Improve readability\n- Reduce complexity\n- Follow best practices\n- Maintain functionality",
			Builtin:     true,
		},
		{
			Name:        "Documentation",
			Description: "Create or update documentation",
			Prompt:      "Create/update documentation for {component}:\n- Add docstrings\n- Update README\n- Create usage examples\n- Document API",
			Builtin:     true,
		},
		{
			Name:        "Test Creation",
			Description: "Create tests for code",
			Prompt:      "Create comprehensive tests for {component}:\n- Unit tests\n- Integration tests\n- Edge cases\n- Test documentation",
			Builtin:     true,
		},
	}
}

// FindTemplate looks up a template by name, case-insensitively.
func FindTemplate(templates []TaskTemplate, name string) (TaskTemplate, bool) {
	for _, t := range templates {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return TaskTemplate{}, false
}
