// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and usage text for forgechat.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdAsk
	CmdRules
	CmdSession
	CmdTask
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Model   string
	Rules   string // Path to a rules XML file, overrides config
	Resume  bool   // Resume the most recent session

	// Command-specific
	Query      string
	Subcommand string

	// Raw args remaining after the command name
	Raw []string
}

const usageText = `forgechat - chat client for an agentic coding assistant

Forgechat drives a local agent backend from the terminal. Sessions,
custom rules, and task templates persist under ~/.forgechat.

Usage:
  forgechat                       Start interactive chat (default)
  forgechat chat                  Interactive chat
  forgechat ask "question"        Ask a single question
  forgechat rules [subcommand]    Manage rule files
  forgechat session [subcommand]  Manage saved sessions
  forgechat task [subcommand]     Task templates
  forgechat config [subcommand]   Configuration
  forgechat version               Show version
  forgechat help                  Show this help

Ask Command:
  forgechat ask "question"        One-shot query, streams the answer
    --model NAME                  Override the model
    --rules FILE                  Apply a rules file to the system prompt

Chat Commands (inside the REPL):
  /help                 Show available commands
  /save                 Save the session now
  /rules [path]         Show active rules or load a rules file
  /model [name]         Show or switch model
  /tasks                Show session subtasks
  /status               Show session statistics
  /quit                 Exit (session is saved)

Rules Commands:
  forgechat rules init [file]     Write the default rules template
  forgechat rules validate [file] Check a rules file for errors
  forgechat rules render [file]   Print the rendered prompt block
  forgechat rules fmt [file]      Reformat a rules file in place

Session Commands:
  forgechat session list          List saved sessions
  forgechat session show <id>     Show a session transcript
  forgechat session search <text> Search sessions by title and content
  forgechat session export <id>   Export a session
    --format json|markdown|html   Export format (default: markdown)
    --output DIR                  Output directory
  forgechat session delete <id>   Delete a session
    --confirm                     Required confirmation flag
  forgechat session cleanup       Delete sessions past the retention window
    --days N                      Override the configured retention window
  forgechat session clear         Delete every saved session
    --confirm                     Required confirmation flag

Task Commands:
  forgechat task list             List task templates
  forgechat task show <name>      Show a template and its placeholders
  forgechat task render <name> key=value ...
                                  Fill a template and print the prompt

Config Commands:
  forgechat config show           Show current configuration
  forgechat config get <key>      Read one setting
  forgechat config set <key> <value>
                                  Change a setting
  forgechat config path           Print the config file location

Global Flags:
  -q, --quiet     Minimal output
  -v, --verbose   Debug output
  --model NAME    Override default model
  --rules FILE    Override the configured rules file
  --resume        Open the most recent session (chat)

Examples:
  forgechat ask "Explain this stack trace"
  forgechat ask --rules team.xml "Review my diff"
  forgechat chat --resume
  forgechat rules validate ~/.forgechat/rules.xml
  forgechat session export 3f2a --format html
  forgechat config set query.model sonnet

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("forgechat version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given arguments. Split out from Parse for tests.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdChat, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "chat":
		return CmdChat, parsed

	case "ask":
		parseAskArgs(&parsed, remaining)
		return CmdAsk, parsed

	case "rules", "rule":
		if len(remaining) > 0 {
			parsed.Subcommand = remaining[0]
		}
		return CmdRules, parsed

	case "session", "sessions":
		if len(remaining) > 0 {
			parsed.Subcommand = remaining[0]
		}
		return CmdSession, parsed

	case "task", "tasks", "template", "templates":
		if len(remaining) > 0 {
			parsed.Subcommand = remaining[0]
		}
		return CmdTask, parsed

	case "config":
		if len(remaining) > 0 {
			parsed.Subcommand = remaining[0]
		}
		return CmdConfig, parsed

	case "version", "-v", "--version":
		return CmdVersion, parsed

	case "help", "-h", "--help":
		return CmdHelp, parsed

	default:
		// Unknown word, treat the whole line as an ask query.
		parsed.Raw = append([]string{cmd}, remaining...)
		parseAskArgs(&parsed, parsed.Raw)
		return CmdAsk, parsed
	}
}

// parseGlobalFlags extracts global flags and returns the remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--resume":
			parsed.Resume = true
		case "--model":
			if i+1 < len(args) {
				i++
				parsed.Model = args[i]
			}
		case "--rules":
			if i+1 < len(args) {
				i++
				parsed.Rules = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--model="):
				parsed.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--rules="):
				parsed.Rules = strings.TrimPrefix(arg, "--rules=")
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsed
}

// parseAskArgs collects the query words for the ask command.
func parseAskArgs(args *Args, remaining []string) {
	var query []string
	for _, arg := range remaining {
		if !strings.HasPrefix(arg, "-") {
			query = append(query, arg)
		}
	}
	args.Query = strings.Join(query, " ")
}

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
