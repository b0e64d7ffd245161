// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rules

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/forgechat/internal/util"
)

// serializeIndent is the pretty-print indentation unit.
const serializeIndent = "    "

// Serialize renders a rule set as a pretty-printed XML document.
//
// The type and priority attributes are always written; enabled is
// written only when false, since true is the parse default. Rules are
// written in the order given, so Parse -> Serialize -> Parse round
// trips to an equal set.
func Serialize(rs RuleSet) string {
	if len(rs) == 0 {
		return "<" + rootElement + " />"
	}

	var b strings.Builder
	b.WriteString("<" + rootElement + ">\n")
	for _, r := range rs {
		b.WriteString(serializeIndent)
		b.WriteString(`<rule type="` + escapeAttr(string(r.Category)) + `"`)
		b.WriteString(` priority="` + strconv.Itoa(r.Priority) + `"`)
		if !r.Enabled {
			b.WriteString(` enabled="false"`)
		}
		b.WriteString(">\n")
		writeTextElement(&b, "name", r.Name)
		writeTextElement(&b, "content", r.Content)
		b.WriteString(serializeIndent + "</rule>\n")
	}
	b.WriteString("</" + rootElement + ">")
	return b.String()
}

// WriteFile serializes rs and writes it atomically to path with a
// standard XML declaration.
func WriteFile(path string, rs RuleSet) error {
	doc := xml.Header + Serialize(rs) + "\n"
	return util.AtomicWriteFile(path, []byte(doc), 0644)
}

func writeTextElement(b *strings.Builder, tag, text string) {
	fmt.Fprintf(b, "%s%s<%s>%s</%s>\n", serializeIndent, serializeIndent, tag, escapeText(text), tag)
}

// escapeText escapes character data. A rule's name and content never
// contain leading or trailing whitespace, but may contain markup
// characters and newlines.
func escapeText(s string) string {
	var b strings.Builder
	// EscapeText only fails on a failed write, impossible here.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func escapeAttr(s string) string {
	return escapeText(s)
}
