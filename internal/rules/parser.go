// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rules

import (
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"
)

// rootElement is the required document root tag.
const rootElement = "rules"

// Parse reads an XML rules document and returns the rule set ordered
// by priority descending (stable, so equal priorities keep document
// order). It fails fast: the first problem aborts the parse and
// nothing is returned.
//
// Errors are *Error values classified by kind: KindSyntax for
// malformed XML, KindSchema for structural problems, KindValidation
// for empty names or content, KindFormat for a non-integer priority.
func Parse(doc string) (RuleSet, error) {
	dec := xml.NewDecoder(strings.NewReader(doc))

	root, err := readRoot(dec)
	if err != nil {
		return nil, err
	}
	if root.Name.Local != rootElement {
		return nil, schemaErrf("root element must be <%s>, found <%s>", rootElement, root.Name.Local)
	}

	var set RuleSet
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, syntaxErr("malformed XML", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "rule" {
				// Unknown children are ignored, same as unknown
				// attributes.
				if err := dec.Skip(); err != nil {
					return nil, syntaxErr("malformed XML", err)
				}
				continue
			}
			r, err := parseRule(dec, t, len(set)+1)
			if err != nil {
				return nil, err
			}
			set = append(set, r)
		case xml.EndElement:
			// Root closed. Anything but trailing whitespace or
			// comments now is malformed.
			if err := expectEOF(dec); err != nil {
				return nil, err
			}
			return set.Sorted(), nil
		}
	}
}

// ParseFile reads and parses the rules document at path.
func ParseFile(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Validate checks a document without keeping the result. It returns
// the same classified errors Parse does, or nil for a valid document.
func Validate(doc string) error {
	_, err := Parse(doc)
	return err
}

// readRoot scans past the prolog to the document's root element.
func readRoot(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, syntaxErr("document has no root element", nil)
		}
		if err != nil {
			return xml.StartElement{}, syntaxErr("malformed XML", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return t, nil
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return xml.StartElement{}, syntaxErr("text before root element", nil)
			}
		case xml.ProcInst, xml.Comment, xml.Directive:
			// prolog, fine
		}
	}
}

// expectEOF consumes the remainder of the stream, rejecting anything
// other than whitespace and comments after the root element.
func expectEOF(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return syntaxErr("malformed XML", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return syntaxErr("content after root element", nil)
			}
		case xml.Comment, xml.ProcInst:
			// fine
		default:
			return syntaxErr("content after root element", nil)
		}
	}
}

// ruleFields receives the child elements of a <rule>. Pointers
// distinguish a missing element from a present-but-empty one.
type ruleFields struct {
	Name    *textElement `xml:"name"`
	Content *textElement `xml:"content"`
}

type textElement struct {
	Text string `xml:",chardata"`
}

// parseRule consumes one <rule> element. n is the 1-based position of
// the rule in the document, used only in error messages.
func parseRule(dec *xml.Decoder, start xml.StartElement, n int) (Rule, error) {
	var typeAttr, priorityAttr, enabledAttr *string
	for _, a := range start.Attr {
		v := a.Value
		switch a.Name.Local {
		case "type":
			typeAttr = &v
		case "priority":
			priorityAttr = &v
		case "enabled":
			enabledAttr = &v
		}
	}

	if typeAttr == nil {
		return Rule{}, schemaErrf("rule %d: missing required \"type\" attribute", n)
	}
	category := Category(*typeAttr)
	if !category.Valid() {
		return Rule{}, schemaErrf("rule %d: invalid rule type %q, valid types: %s", n, *typeAttr, categoryNames())
	}

	priority := 0
	if priorityAttr != nil {
		p, err := strconv.Atoi(strings.TrimSpace(*priorityAttr))
		if err != nil {
			return Rule{}, formatErrf("rule %d: priority %q is not an integer", n, *priorityAttr)
		}
		priority = p
	}

	enabled := true
	if enabledAttr != nil {
		enabled = strings.EqualFold(strings.TrimSpace(*enabledAttr), "true")
	}

	var fields ruleFields
	if err := dec.DecodeElement(&fields, &start); err != nil {
		return Rule{}, syntaxErr("malformed XML", err)
	}
	if fields.Name == nil {
		return Rule{}, schemaErrf("rule %d: missing required <name> element", n)
	}
	if fields.Content == nil {
		return Rule{}, schemaErrf("rule %d: missing required <content> element", n)
	}

	name := strings.TrimSpace(fields.Name.Text)
	if name == "" {
		return Rule{}, validationErrf("rule %d: rule name must not be empty", n)
	}
	content := strings.TrimSpace(fields.Content.Text)
	if content == "" {
		return Rule{}, validationErrf("rule %d: rule content must not be empty", n)
	}

	return Rule{
		Name:     name,
		Category: category,
		Content:  content,
		Enabled:  enabled,
		Priority: priority,
	}, nil
}
