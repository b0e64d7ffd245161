// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// task_cmd.go - Task template commands for forgechat CLI.
//
// Command: task
// Subcommands:
//
//	list                       List available templates
//	show <name>                Show a template and its placeholders
//	render <name> key=value... Fill placeholders and print the prompt
//
// Template names are matched case-insensitively.
package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/forgechat/internal/model"
)

// HandleTask handles the "task" command.
func HandleTask(args Args) error {
	parser := NewArgParser(args.Raw)

	switch parser.Subcommand() {
	case "list", "ls", "":
		return handleTaskList()
	case "show":
		return handleTaskShow(parser)
	case "render":
		return handleTaskRender(parser)
	default:
		return ErrMissingArgument(
			fmt.Sprintf("unknown task subcommand %q", parser.Subcommand()),
			"forgechat task list|show|render")
	}
}

func handleTaskList() error {
	fmt.Println(TitleStyle.Render("Task templates"))
	for _, tpl := range model.BuiltinTemplates() {
		fmt.Printf("  %-24s %s\n",
			ValueStyle.Render(tpl.Name),
			DimStyle.Render(tpl.Description))
	}
	return nil
}

func findTaskTemplate(name string) (model.TaskTemplate, error) {
	if name == "" {
		return model.TaskTemplate{}, ErrMissingArgument("missing template name", "forgechat task show <name>")
	}
	tpl, ok := model.FindTemplate(model.BuiltinTemplates(), name)
	if !ok {
		return model.TaskTemplate{}, NewCommandError("task", "find", fmt.Sprintf("no template named %q", name), nil)
	}
	return tpl, nil
}

func handleTaskShow(parser *ArgParser) error {
	tpl, err := findTaskTemplate(JoinPositionalArgs(parser, 1))
	if err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render(tpl.Name))
	fmt.Println(DimStyle.Render(tpl.Description))
	fmt.Println()
	fmt.Println(tpl.Prompt)

	if ph := tpl.Placeholders(); len(ph) > 0 {
		fmt.Println()
		fmt.Printf("%s %s\n", LabelStyle.Render("Placeholders"), strings.Join(ph, ", "))
	}
	return nil
}

func handleTaskRender(parser *ArgParser) error {
	name := parser.Positional(1)
	tpl, err := findTaskTemplate(name)
	if err != nil {
		return err
	}

	// Remaining positionals are key=value placeholder fills.
	values := make(map[string]string)
	for _, arg := range parser.PositionalFrom(2) {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return ErrMissingArgument(
				fmt.Sprintf("placeholder %q is not key=value", arg),
				"forgechat task render <name> key=value ...")
		}
		values[k] = v
	}

	for _, ph := range tpl.Placeholders() {
		if _, ok := values[ph]; !ok {
			return ErrMissingArgument(
				fmt.Sprintf("missing value for placeholder %q", ph),
				fmt.Sprintf("forgechat task render %q %s=...", name, ph))
		}
	}

	fmt.Println(tpl.Render(values))
	return nil
}
