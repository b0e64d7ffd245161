// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rules

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rules engine failure so callers can
// distinguish broken markup from broken content without string
// matching.
type ErrorKind int

const (
	// KindSyntax means the document is not well-formed XML.
	KindSyntax ErrorKind = iota
	// KindSchema means the XML is well-formed but the structure is
	// wrong: bad root element, missing attribute or element, or an
	// unknown category.
	KindSchema
	// KindValidation means the structure is right but a value is
	// unacceptable, such as an empty name or content.
	KindValidation
	// KindFormat means a value has the wrong type, such as a
	// non-integer priority.
	KindFormat
)

func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindSchema:
		return "schema"
	case KindValidation:
		return "validation"
	case KindFormat:
		return "format"
	default:
		return "unknown"
	}
}

// Error is the error type returned by Parse, Validate, and rule
// construction. Inspect Kind with errors.As:
//
//	var re *rules.Error
//	if errors.As(err, &re) && re.Kind == rules.KindSchema { ... }
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rules: %s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("rules: %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, &Error{Kind: k}) match on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || t.Message == e.Message)
}

// IsKind reports whether err is a rules Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var re *Error
	if !errors.As(err, &re) {
		return false
	}
	return re.Kind == kind
}

func syntaxErr(msg string, cause error) *Error {
	return &Error{Kind: KindSyntax, Message: msg, Err: cause}
}

func schemaErrf(format string, args ...any) *Error {
	return &Error{Kind: KindSchema, Message: fmt.Sprintf(format, args...)}
}

func validationErrf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func formatErrf(format string, args ...any) *Error {
	return &Error{Kind: KindFormat, Message: fmt.Sprintf(format, args...)}
}
