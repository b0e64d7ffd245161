// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSerializeRoundTrip(t *testing.T) {
	docs := []struct {
		name string
		doc  string
	}{
		{"default template", DefaultTemplate},
		{"disabled rule", `<rules>
			<rule type="behavior" priority="3" enabled="false"><name>Off</name><content>disabled rule</content></rule>
			<rule type="instruction"><name>On</name><content>enabled rule</content></rule>
		</rules>`},
		{"markup in content", `<rules>
			<rule type="format"><name>Tags</name><content>Wrap output in &lt;answer&gt; tags &amp; nothing else</content></rule>
		</rules>`},
		{"negative priority", `<rules>
			<rule type="constraint" priority="-2"><name>Low</name><content>applies last</content></rule>
		</rules>`},
	}

	for _, tt := range docs {
		t.Run(tt.name, func(t *testing.T) {
			first, err := Parse(tt.doc)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			second, err := Parse(Serialize(first))
			if err != nil {
				t.Fatalf("Parse(Serialize()): %v", err)
			}
			if !first.Equal(second) {
				t.Errorf("round trip changed the set\nfirst:  %+v\nsecond: %+v", first, second)
			}
		})
	}
}

func TestSerializeAttributes(t *testing.T) {
	rs := RuleSet{
		{Name: "A", Category: CategoryBehavior, Content: "a", Enabled: true, Priority: 7},
		{Name: "B", Category: CategoryFormat, Content: "b", Enabled: false, Priority: 0},
	}
	out := Serialize(rs)

	if !strings.Contains(out, `<rule type="behavior" priority="7">`) {
		t.Errorf("type and priority should always be written:\n%s", out)
	}
	if strings.Contains(out, `enabled="true"`) {
		t.Errorf("enabled should be omitted when true:\n%s", out)
	}
	if !strings.Contains(out, `enabled="false"`) {
		t.Errorf("enabled should be written when false:\n%s", out)
	}
}

func TestSerializeIndentation(t *testing.T) {
	rs := RuleSet{{Name: "A", Category: CategoryBehavior, Content: "a", Enabled: true}}
	out := Serialize(rs)

	lines := strings.Split(out, "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], serializeIndent+"<rule ") {
		t.Errorf("rule should be indented one level: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], serializeIndent+serializeIndent+"<name>") {
		t.Errorf("name should be indented two levels: %q", lines[2])
	}
}

func TestSerializeEmpty(t *testing.T) {
	out := Serialize(nil)
	set, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(Serialize(nil)): %v", err)
	}
	if len(set) != 0 {
		t.Errorf("expected empty set, got %d rules", len(set))
	}
}

func TestSerializeEscapesText(t *testing.T) {
	rs := RuleSet{{
		Name:     "Quotes & Tags",
		Category: CategoryInstruction,
		Content:  `Prefer "double" quotes, never emit <script>`,
		Enabled:  true,
	}}
	set, err := Parse(Serialize(rs))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !rs.Equal(set) {
		t.Errorf("escaping broke round trip: %+v", set)
	}
}

func TestWriteFileAndParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.xml")
	rs := RuleSet{{Name: "A", Category: CategoryBehavior, Content: "a", Enabled: true, Priority: 1}}

	if err := WriteFile(path, rs); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasPrefix(string(data), "<?xml") {
		t.Errorf("file should start with an XML declaration: %q", string(data)[:20])
	}

	set, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if !rs.Equal(set) {
		t.Errorf("file round trip changed the set: %+v", set)
	}
}

func TestInitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.xml")

	created, err := InitFile(path)
	if err != nil {
		t.Fatalf("InitFile: %v", err)
	}
	if !created {
		t.Fatal("expected file to be created")
	}
	if _, err := ParseFile(path); err != nil {
		t.Fatalf("scaffold should parse cleanly: %v", err)
	}

	// Second init must not clobber the existing file.
	if err := os.WriteFile(path, []byte("<rules />"), 0644); err != nil {
		t.Fatal(err)
	}
	created, err = InitFile(path)
	if err != nil {
		t.Fatalf("InitFile: %v", err)
	}
	if created {
		t.Error("existing file should not be overwritten")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "<rules />" {
		t.Errorf("file content changed: %q", string(data))
	}
}
