// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration management for forgechat CLI.
//
// Command: config
// Subcommands:
//
//	show              Show all settings
//	get <key>         Read one setting
//	set <key> <value> Change a setting and save
//	path              Print the config file location
package cli

import (
	"fmt"
	"strconv"

	"github.com/jeranaias/forgechat/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	parser := NewArgParser(args.Raw)

	switch parser.Subcommand() {
	case "show", "":
		return handleConfigShow()
	case "get":
		return handleConfigGet(parser)
	case "set":
		return handleConfigSet(parser)
	case "path":
		return handleConfigPath()
	default:
		return ErrMissingArgument(
			fmt.Sprintf("unknown config subcommand %q", parser.Subcommand()),
			"forgechat config show|get|set|path")
	}
}

func handleConfigShow() error {
	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("config", "show", "load", err)
	}

	fmt.Println(TitleStyle.Render("forgechat configuration"))
	for _, key := range config.Keys() {
		val, err := cfg.Get(key)
		if err != nil {
			continue
		}
		if val == "" {
			val = DimStyle.Render("(unset)")
		}
		fmt.Printf("  %-28s %s\n", LabelStyle.Render(key), ValueStyle.Render(val))
	}
	return nil
}

func handleConfigGet(parser *ArgParser) error {
	key := parser.Positional(1)
	if key == "" {
		return ErrMissingArgument("missing config key", "forgechat config get <key>")
	}

	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("config", "get", "load", err)
	}

	val, err := cfg.Get(key)
	if err != nil {
		return NewCommandError("config", "get", key, err)
	}
	fmt.Println(val)
	return nil
}

func handleConfigSet(parser *ArgParser) error {
	key := parser.Positional(1)
	value := parser.Positional(2)
	if key == "" || value == "" {
		return ErrMissingArgument("config set needs a key and a value", "forgechat config set <key> <value>")
	}

	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("config", "set", "load", err)
	}

	if err := cfg.Set(key, value); err != nil {
		// Boolean keys also accept yes/no, y/n, 1/0, and on/off.
		b, perr := ParseBoolString(value)
		if perr != nil {
			return NewCommandError("config", "set", key, err)
		}
		value = strconv.FormatBool(b)
		if err := cfg.Set(key, value); err != nil {
			return NewCommandError("config", "set", key, err)
		}
	}
	if err := config.Save(cfg); err != nil {
		return NewCommandError("config", "set", "save", err)
	}

	fmt.Printf("%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
	return nil
}

func handleConfigPath() error {
	path, err := config.Path()
	if err != nil {
		return NewCommandError("config", "path", "", err)
	}
	fmt.Println(path)
	return nil
}
