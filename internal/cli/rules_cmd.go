// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// rules_cmd.go - Rule file management for forgechat CLI.
//
// Command: rules
// Subcommands:
//
//	init [file]       Write the default rules template (refuses to overwrite)
//	validate [file]   Parse a rules file and report errors
//	render [file]     Print the prompt block built from the rules
//	fmt [file]        Reformat a rules file in place
//
// When no file is given, the configured default rules path is used,
// falling back to ~/.forgechat/rules.xml.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/jeranaias/forgechat/internal/config"
	"github.com/jeranaias/forgechat/internal/rules"
)

// HandleRules handles the "rules" command.
func HandleRules(args Args) error {
	parser := NewArgParser(args.Raw)

	switch parser.Subcommand() {
	case "init":
		return handleRulesInit(args, parser)
	case "validate", "check":
		return handleRulesValidate(args, parser)
	case "render":
		return handleRulesRender(args, parser)
	case "fmt", "format":
		return handleRulesFmt(args, parser)
	case "":
		return ErrMissingArgument("missing rules subcommand", "forgechat rules init|validate|render|fmt [file]")
	default:
		return ErrMissingArgument(
			fmt.Sprintf("unknown rules subcommand %q", parser.Subcommand()),
			"forgechat rules init|validate|render|fmt [file]")
	}
}

// resolveRulesPath picks the rules file: positional argument, then the
// --rules flag, then config, then ~/.forgechat/rules.xml.
func resolveRulesPath(args Args, parser *ArgParser) (string, error) {
	if p := parser.Positional(1); p != "" {
		return p, nil
	}
	if args.Rules != "" {
		return args.Rules, nil
	}

	cfg, err := config.Load()
	if err == nil && cfg.Query.DefaultRulesPath != "" {
		return cfg.Query.DefaultRulesPath, nil
	}

	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rules.xml"), nil
}

func handleRulesInit(args Args, parser *ArgParser) error {
	path, err := resolveRulesPath(args, parser)
	if err != nil {
		return NewCommandError("rules", "init", "resolve path", err)
	}

	created, err := rules.InitFile(path)
	if err != nil {
		return NewCommandError("rules", "init", "write template", err)
	}
	if !created {
		fmt.Printf("%s %s already exists, leaving it alone\n", WarningStyle.Render("[SKIP]"), path)
		return nil
	}
	fmt.Printf("%s wrote default rules to %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}

func handleRulesValidate(args Args, parser *ArgParser) error {
	path, err := resolveRulesPath(args, parser)
	if err != nil {
		return NewCommandError("rules", "validate", "resolve path", err)
	}

	set, err := rules.ParseFile(path)
	if err != nil {
		fmt.Printf("%s %s\n", ErrorStyle.Render("[INVALID]"), err)
		return NewCommandError("rules", "validate", path, err)
	}

	enabled := len(set.Enabled())
	fmt.Printf("%s %s: %d rules (%d enabled)\n",
		SuccessStyle.Render("[VALID]"), path, len(set), enabled)

	if !args.Quiet {
		for _, r := range set {
			state := SuccessStyle.Render("on ")
			if !r.Enabled {
				state = DimStyle.Render("off")
			}
			fmt.Printf("  %s %-12s p%-4d %s\n", state, r.Category, r.Priority, r.Name)
		}
	}
	return nil
}

func handleRulesRender(args Args, parser *ArgParser) error {
	path, err := resolveRulesPath(args, parser)
	if err != nil {
		return NewCommandError("rules", "render", "resolve path", err)
	}

	set, err := rules.ParseFile(path)
	if err != nil {
		return NewCommandError("rules", "render", path, err)
	}

	prompt := rules.RenderPrompt(set)
	if prompt == "" {
		fmt.Println(DimStyle.Render("(no enabled rules, prompt block is empty)"))
		return nil
	}
	fmt.Println(prompt)
	return nil
}

func handleRulesFmt(args Args, parser *ArgParser) error {
	path, err := resolveRulesPath(args, parser)
	if err != nil {
		return NewCommandError("rules", "fmt", "resolve path", err)
	}

	set, err := rules.ParseFile(path)
	if err != nil {
		return NewCommandError("rules", "fmt", path, err)
	}

	if err := rules.WriteFile(path, set); err != nil {
		return NewCommandError("rules", "fmt", path, err)
	}
	fmt.Printf("%s reformatted %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}
