// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/forgechat/internal/model"
)

func sampleSession() *model.Session {
	sess := model.NewSession("Fix the build")
	sess.Model = "sonnet"
	sess.AddMessage(model.RoleUser, "Why does the build fail?")
	sess.AddMessage(model.RoleAssistant, "Missing import.\n\n```go\nimport \"fmt\"\n```\n\nAdd it to `main.go`.")
	sess.AddUsage(1200, 0.0042)
	st := sess.AddSubtask("Verify CI", "")
	st.Complete()
	return sess
}

func TestForSelectsExporter(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"json", ".json"},
		{"markdown", ".md"},
		{"md", ".md"},
		{"html", ".html"},
	}
	for _, tt := range tests {
		exp, err := For(tt.format, nil)
		if err != nil {
			t.Errorf("For(%q): %v", tt.format, err)
			continue
		}
		if exp.FileExtension() != tt.ext {
			t.Errorf("For(%q).FileExtension() = %q, want %q", tt.format, exp.FileExtension(), tt.ext)
		}
	}

	if _, err := For("pdf", nil); err == nil {
		t.Error("unknown format should error")
	}
}

func TestJSONExportRoundTrip(t *testing.T) {
	sess := sampleSession()

	out, err := NewJSONExporter(nil).Export(sess)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var got model.Session
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != sess.ID || got.Title != sess.Title {
		t.Errorf("round trip lost identity: %+v", got)
	}
	if len(got.Messages) != 2 || got.TotalTokens != 1200 {
		t.Errorf("round trip lost content: %+v", got)
	}
}

func TestJSONExportNilSession(t *testing.T) {
	if _, err := NewJSONExporter(nil).Export(nil); err == nil {
		t.Error("nil session should error")
	}
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleSession())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	doc := string(out)

	for _, want := range []string{
		"---\n",
		"model: sonnet",
		"# Fix the build",
		"## Session Information",
		"- **Tokens Used**: 1200",
		"- **Cost**: $0.0042",
		"## Subtasks",
		"- [x] Verify CI",
		"## Conversation",
		"### [User]",
		"### [Assistant]",
		"```go",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownExportWithoutMetadata(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeMetadata = false
	opts.IncludeTimestamps = false

	out, err := NewMarkdownExporter(opts).Export(sampleSession())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	doc := string(out)
	if strings.Contains(doc, "## Session Information") || strings.Contains(doc, "---\ntitle:") {
		t.Error("metadata should be omitted")
	}
	if strings.Contains(doc, "<sub>") {
		t.Error("timestamps should be omitted")
	}
}

func TestMarkdownExportEmptySession(t *testing.T) {
	sess := model.NewSession("empty")
	if _, err := NewMarkdownExporter(nil).Export(sess); err == nil {
		t.Error("session with no messages should error")
	}
}

func TestMarkdownEscapesTitle(t *testing.T) {
	sess := sampleSession()
	sess.Title = "fix *bug* [urgent]"

	out, err := NewMarkdownExporter(nil).Export(sess)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `# fix \*bug\* \[urgent\]`) {
		t.Error("title should be markdown-escaped")
	}
}

func TestHTMLExport(t *testing.T) {
	out, err := NewHTMLExporter(nil).Export(sampleSession())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	doc := string(out)

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<body class=\"dark-theme\">",
		"<title>Fix the build</title>",
		"class=\"message user-message\"",
		"class=\"message assistant-message\"",
		"class=\"code-lang\">go</div>",
		"<code class=\"inline-code\">main.go</code>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestHTMLExportEscapesContent(t *testing.T) {
	sess := model.NewSession("xss <script>")
	sess.AddMessage(model.RoleUser, "<img src=x onerror=alert(1)>")

	out, err := NewHTMLExporter(nil).Export(sess)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(out)
	if strings.Contains(doc, "<img src=x") {
		t.Error("message content should be HTML-escaped")
	}
	if !strings.Contains(doc, "<title>xss &lt;script&gt;</title>") {
		t.Error("title should be HTML-escaped")
	}
}

func TestHTMLLightTheme(t *testing.T) {
	opts := DefaultOptions()
	opts.Theme = "light"

	out, err := NewHTMLExporter(opts).Export(sampleSession())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "<body class=\"light-theme\">") {
		t.Error("theme option should select the body class")
	}
}

func TestExportToFile(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()
	opts.OpenAfterExport = false

	path, err := ExportToFile(sampleSession(), NewMarkdownExporter(opts), opts)
	if err != nil {
		t.Fatalf("ExportToFile: %v", err)
	}
	if filepath.Ext(path) != ".md" {
		t.Errorf("path = %q, want .md extension", path)
	}
	if !strings.Contains(filepath.Base(path), "Fix_the_build") {
		t.Errorf("filename should carry the sanitized title: %q", path)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple", "simple"},
		{"with spaces", "with_spaces"},
		{"a/b\\c:d", "a-b-c-d"},
		{"", "session"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
