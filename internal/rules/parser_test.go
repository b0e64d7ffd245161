// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBasic(t *testing.T) {
	doc := `<rules>
		<rule type="behavior" priority="10">
			<name>Tone</name>
			<content>Be concise</content>
		</rule>
		<rule type="constraint">
			<name>Scope</name>
			<content>Only touch files under src</content>
		</rule>
	</rules>`

	set, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, set, 2)

	assert.Equal(t, "Tone", set[0].Name)
	assert.Equal(t, CategoryBehavior, set[0].Category)
	assert.Equal(t, "Be concise", set[0].Content)
	assert.Equal(t, 10, set[0].Priority)
	assert.True(t, set[0].Enabled)

	assert.Equal(t, CategoryConstraint, set[1].Category)
	assert.Equal(t, 0, set[1].Priority, "priority defaults to 0")
	assert.True(t, set[1].Enabled, "enabled defaults to true")
}

func TestParseSortsByPriorityDescending(t *testing.T) {
	doc := `<rules>
		<rule type="behavior" priority="5"><name>A</name><content>a</content></rule>
		<rule type="behavior" priority="10"><name>B</name><content>b</content></rule>
		<rule type="behavior"><name>C</name><content>c</content></rule>
	</rules>`

	set, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, set, 3)
	assert.Equal(t, []string{"B", "A", "C"}, ruleNames(set))
}

func TestParseSortIsStable(t *testing.T) {
	doc := `<rules>
		<rule type="behavior" priority="5"><name>First</name><content>x</content></rule>
		<rule type="constraint" priority="5"><name>Second</name><content>x</content></rule>
		<rule type="format" priority="5"><name>Third</name><content>x</content></rule>
	</rules>`

	set, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Second", "Third"}, ruleNames(set),
		"equal priorities keep document order")
}

func TestParseWrongRootElement(t *testing.T) {
	_, err := Parse(`<ruleset><rule type="behavior"><name>A</name><content>a</content></rule></ruleset>`)
	requireKind(t, err, KindSchema)
	assert.Contains(t, err.Error(), "<rules>")
}

func TestParseMissingTypeAttribute(t *testing.T) {
	_, err := Parse(`<rules><rule><name>A</name><content>a</content></rule></rules>`)
	requireKind(t, err, KindSchema)
	assert.Contains(t, err.Error(), "type")
}

func TestParseInvalidType(t *testing.T) {
	_, err := Parse(`<rules><rule type="bogus"><name>A</name><content>a</content></rule></rules>`)
	requireKind(t, err, KindSchema)
	for _, c := range Categories {
		assert.Contains(t, err.Error(), string(c), "error should list the valid categories")
	}
}

func TestParseMissingElements(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no name", `<rules><rule type="behavior"><content>a</content></rule></rules>`, "<name>"},
		{"no content", `<rules><rule type="behavior"><name>A</name></rule></rules>`, "<content>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			requireKind(t, err, KindSchema)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseEmptyText(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty name", `<rules><rule type="behavior"><name>   </name><content>a</content></rule></rules>`},
		{"empty content", `<rules><rule type="behavior"><name>A</name><content>
		</content></rule></rules>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			requireKind(t, err, KindValidation)
		})
	}
}

func TestParseNonIntegerPriority(t *testing.T) {
	_, err := Parse(`<rules><rule type="behavior" priority="high"><name>A</name><content>a</content></rule></rules>`)
	requireKind(t, err, KindFormat)
	assert.Contains(t, err.Error(), "high")
}

func TestParseMalformedXML(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"truncated", `<rules><rule type="behavior"><name>A</name>`},
		{"mismatched tags", `<rules><rule type="behavior"><name>A</content></rule></rules>`},
		{"empty document", ``},
		{"trailing garbage", `<rules></rules><rules></rules>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			requireKind(t, err, KindSyntax)
		})
	}
}

func TestParseFailFast(t *testing.T) {
	// The first bad rule aborts the parse even when later rules are
	// fine.
	doc := `<rules>
		<rule type="nope"><name>Bad</name><content>x</content></rule>
		<rule type="behavior"><name>Good</name><content>x</content></rule>
	</rules>`
	set, err := Parse(doc)
	requireKind(t, err, KindSchema)
	assert.Nil(t, set)
}

func TestParseEnabledAttribute(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"True", true},
		{"false", false},
		{"FALSE", false},
		{"yes", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run("value "+tt.value, func(t *testing.T) {
			doc := `<rules><rule type="behavior" enabled="` + tt.value + `"><name>A</name><content>a</content></rule></rules>`
			set, err := Parse(doc)
			require.NoError(t, err)
			require.Len(t, set, 1)
			assert.Equal(t, tt.want, set[0].Enabled)
		})
	}
}

func TestParseIgnoresUnknownChildren(t *testing.T) {
	doc := `<rules>
		<comment>not a rule</comment>
		<rule type="behavior"><name>A</name><content>a</content><extra>ignored</extra></rule>
	</rules>`
	set, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, "A", set[0].Name)
}

func TestParseEmptyRuleset(t *testing.T) {
	for _, doc := range []string{`<rules></rules>`, `<rules />`} {
		set, err := Parse(doc)
		require.NoError(t, err)
		assert.Empty(t, set)
	}
}

func TestParseDefaultTemplate(t *testing.T) {
	set, err := Parse(DefaultTemplate)
	require.NoError(t, err)
	require.Len(t, set, 4)

	seen := map[Category]bool{}
	for _, r := range set {
		seen[r.Category] = true
	}
	for _, c := range Categories {
		assert.True(t, seen[c], "template should cover category %s", c)
	}
	assert.Equal(t, "Professional Tone", set[0].Name, "highest priority first")
}

func TestValidate(t *testing.T) {
	if err := Validate(DefaultTemplate); err != nil {
		t.Fatalf("Validate(DefaultTemplate) = %v, want nil", err)
	}
	err := Validate(`<rules><rule type="behavior"><name></name><content>a</content></rule></rules>`)
	requireKind(t, err, KindValidation)
}

func TestErrorKindMatching(t *testing.T) {
	_, err := Parse(`<broken`)
	var re *Error
	require.True(t, errors.As(err, &re))
	assert.Equal(t, KindSyntax, re.Kind)
	assert.True(t, errors.Is(err, &Error{Kind: KindSyntax}))
	assert.False(t, errors.Is(err, &Error{Kind: KindSchema}))
	assert.True(t, IsKind(err, KindSyntax))
	assert.False(t, IsKind(errors.New("plain"), KindSyntax))
}

func ruleNames(rs RuleSet) []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.Name
	}
	return names
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var re *Error
	if !errors.As(err, &re) {
		t.Fatalf("expected *rules.Error, got %T: %v", err, err)
	}
	if re.Kind != kind {
		t.Fatalf("expected %s error, got %s: %v", kind, re.Kind, err)
	}
	if !strings.Contains(err.Error(), kind.String()) {
		t.Fatalf("error text %q should mention kind %s", err.Error(), kind)
	}
}
