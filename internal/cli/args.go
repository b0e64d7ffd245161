// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Subcommand argument parsing shared by the rules, session,
// task, and config handlers.

package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser splits a subcommand's raw arguments into flags and
// positionals. Flags may be written as --flag value, --flag=value,
// -f value, or bare --flag for booleans. The first positional names
// the subcommand.
type ArgParser struct {
	subcommand string            // first positional ("show", "export", "set", ...)
	flags      map[string]string // value flags (--format json)
	boolFlags  map[string]bool   // presence flags (--confirm, --open)
	positional []string          // positionals, subcommand included
}

// NewArgParser parses the arguments that follow a top-level command.
//
// Example:
//
//	p := NewArgParser([]string{"export", "4f2a", "--format=json", "--open"})
//	p.Subcommand()       // "export"
//	p.Positional(1)      // "4f2a"
//	p.Flag("format")     // "json"
//	p.BoolFlag("open")   // true
func NewArgParser(raw []string) *ArgParser {
	p := &ArgParser{
		flags:      make(map[string]string),
		boolFlags:  make(map[string]bool),
		positional: make([]string, 0),
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]
		if !strings.HasPrefix(arg, "-") {
			p.positional = append(p.positional, arg)
			i++
			continue
		}

		// --flag=value, with --flag=true/false treated as boolean
		if strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			name := strings.TrimLeft(parts[0], "-")
			if parts[1] == "true" || parts[1] == "false" {
				p.boolFlags[name] = parts[1] == "true"
			} else {
				p.flags[name] = parts[1]
			}
			i++
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			p.flags[name] = raw[i+1]
			i += 2
		} else {
			p.boolFlags[name] = true
			i++
		}
	}

	if len(p.positional) > 0 {
		p.subcommand = p.positional[0]
	}
	return p
}

// Subcommand returns the first positional argument, or "" when the
// command was invoked bare ("forgechat session" -> "").
func (p *ArgParser) Subcommand() string {
	return p.subcommand
}

// Flag returns the value of a string flag, or "" when absent. The
// name may be given with or without leading dashes.
//
// Example: after "session export 4f2a --format json --output /tmp",
// Flag("format") is "json" and Flag("output") is "/tmp".
func (p *ArgParser) Flag(name string) string {
	if val, ok := p.flags[name]; ok {
		return val
	}
	name = strings.TrimLeft(name, "-")
	if val, ok := p.flags[name]; ok {
		return val
	}
	return ""
}

// FlagOrDefault returns the flag value, falling back to defaultValue
// when the flag is absent or empty.
func (p *ArgParser) FlagOrDefault(name, defaultValue string) string {
	if val := p.Flag(name); val != "" {
		return val
	}
	return defaultValue
}

// BoolFlag reports whether a boolean flag was set, e.g. --confirm on
// "session delete" or --open on "session export".
func (p *ArgParser) BoolFlag(name string) bool {
	if val, ok := p.boolFlags[name]; ok {
		return val
	}
	name = strings.TrimLeft(name, "-")
	if val, ok := p.boolFlags[name]; ok {
		return val
	}
	return false
}

// HasFlag reports whether the flag was given at all, as either a
// value or a boolean flag. It distinguishes an explicit "--days 30"
// from the configured retention default.
func (p *ArgParser) HasFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	_, hasString := p.flags[name]
	_, hasBool := p.boolFlags[name]
	return hasString || hasBool
}

// Positional returns the positional argument at index, or "" when out
// of range. Index 0 is the subcommand.
//
// Example: for "session show 4f2a", Positional(1) is "4f2a".
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns the positional arguments starting at index.
// "task render review file=main.go" -> PositionalFrom(2) is
// []string{"file=main.go"}.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return []string{}
	}
	return p.positional[index:]
}

// PositionalCount returns the number of positional arguments,
// subcommand included.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// =============================================================================
// SHARED VALUE PARSING
// =============================================================================

// ParsePositiveInt parses a value like --days that must be a positive
// integer, naming the field in the error.
func ParsePositiveInt(s string, fieldName string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("%s is required", fieldName)
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", fieldName, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", fieldName, val)
	}
	return val, nil
}

// ParseBoolString parses the boolean spellings accepted by
// "config set": true/false, yes/no, y/n, 1/0, on/off, any case.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "on":
		return true, nil
	case "false", "no", "n", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}

// JoinPositionalArgs joins the positionals from startIndex into one
// string, for subcommands that take free text.
//
// Example: "session search rate limiter" -> "rate limiter".
func JoinPositionalArgs(p *ArgParser, startIndex int) string {
	return strings.Join(p.PositionalFrom(startIndex), " ")
}
