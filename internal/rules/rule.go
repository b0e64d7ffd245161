// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rules

import (
	"sort"
	"strings"
)

// ===== CATEGORIES =====

// Category classifies a rule. The set is closed: the parser rejects
// anything outside the four values below.
type Category string

const (
	CategoryBehavior    Category = "behavior"
	CategoryConstraint  Category = "constraint"
	CategoryFormat      Category = "format"
	CategoryInstruction Category = "instruction"
)

// Categories lists every valid category in prompt display order.
// RenderPrompt emits sections in exactly this order.
var Categories = []Category{
	CategoryBehavior,
	CategoryConstraint,
	CategoryFormat,
	CategoryInstruction,
}

// headings maps each category to its prompt section heading.
var headings = map[Category]string{
	CategoryBehavior:    "Behavioral Guidelines:",
	CategoryConstraint:  "Constraints:",
	CategoryFormat:      "Formatting Requirements:",
	CategoryInstruction: "Special Instructions:",
}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	_, ok := headings[c]
	return ok
}

// Heading returns the prompt section heading for c, or "" for an
// unknown category.
func (c Category) Heading() string {
	return headings[c]
}

func (c Category) String() string {
	return string(c)
}

// categoryNames returns the valid category names joined for error
// messages, in display order.
func categoryNames() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// ===== RULE =====

// Rule is a single directive. Name and Content are stored trimmed and
// are never empty for a Rule produced by Parse or New.
type Rule struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Content  string   `json:"content"`
	Enabled  bool     `json:"enabled"`
	Priority int      `json:"priority"`
}

// New builds a validated Rule. Name and content are trimmed, the rule
// starts enabled with priority 0.
func New(name string, category Category, content string) (Rule, error) {
	r := Rule{
		Name:     strings.TrimSpace(name),
		Category: category,
		Content:  strings.TrimSpace(content),
		Enabled:  true,
	}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// Validate checks the invariants Parse enforces: known category,
// non-empty trimmed name and content.
func (r Rule) Validate() error {
	if !r.Category.Valid() {
		return schemaErrf("invalid rule category %q, must be one of: %s", string(r.Category), categoryNames())
	}
	if strings.TrimSpace(r.Name) == "" {
		return validationErrf("rule name must not be empty")
	}
	if strings.TrimSpace(r.Content) == "" {
		return validationErrf("rule content must not be empty")
	}
	return nil
}

// ===== RULESET =====

// RuleSet is an ordered sequence of rules. Order is significant: it is
// the order rules appear in the document, and ties on priority keep it.
type RuleSet []Rule

// Sorted returns a copy ordered by priority descending. The sort is
// stable, so equal-priority rules keep their relative order.
func (rs RuleSet) Sorted() RuleSet {
	out := make(RuleSet, len(rs))
	copy(out, rs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// Enabled returns the subset of enabled rules, preserving order.
func (rs RuleSet) Enabled() RuleSet {
	out := make(RuleSet, 0, len(rs))
	for _, r := range rs {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// ByCategory returns the rules in c, preserving order.
func (rs RuleSet) ByCategory(c Category) RuleSet {
	out := make(RuleSet, 0, len(rs))
	for _, r := range rs {
		if r.Category == c {
			out = append(out, r)
		}
	}
	return out
}

// Equal reports whether two rule sets hold the same rules in the same
// order.
func (rs RuleSet) Equal(other RuleSet) bool {
	if len(rs) != len(other) {
		return false
	}
	for i := range rs {
		if rs[i] != other[i] {
			return false
		}
	}
	return true
}

// Add appends a validated rule and returns the extended set.
func (rs RuleSet) Add(r Rule) (RuleSet, error) {
	if err := r.Validate(); err != nil {
		return rs, err
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Content = strings.TrimSpace(r.Content)
	return append(rs, r), nil
}

// Remove deletes the rule at index i. Out-of-range indexes are a no-op.
func (rs RuleSet) Remove(i int) RuleSet {
	if i < 0 || i >= len(rs) {
		return rs
	}
	out := make(RuleSet, 0, len(rs)-1)
	out = append(out, rs[:i]...)
	return append(out, rs[i+1:]...)
}
