// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// session_cmd.go - Saved session management for forgechat CLI.
//
// Command: session
// Subcommands:
//
//	list              List saved sessions, newest first
//	show <id>         Print a session transcript
//	search <text>     Search titles and message content
//	export <id>       Export a session (--format json|markdown|html)
//	delete <id>       Delete a session (--confirm required)
//	cleanup           Delete sessions past the retention window
//	clear             Delete every saved session (--confirm required)
//
// Session IDs may be abbreviated to any unique prefix.
package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/forgechat/internal/config"
	"github.com/jeranaias/forgechat/internal/export"
	"github.com/jeranaias/forgechat/internal/model"
	"github.com/jeranaias/forgechat/internal/store"
	"github.com/jeranaias/forgechat/internal/util"
)

// HandleSession handles the "session" command.
func HandleSession(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("session", "load config", "", err)
	}

	st, err := store.Open(cfg.Session.StoragePath)
	if err != nil {
		return NewCommandError("session", "open store", "", err)
	}

	parser := NewArgParser(args.Raw)

	switch parser.Subcommand() {
	case "list", "ls", "l", "":
		return handleSessionList(st)
	case "show":
		return handleSessionShow(st, parser)
	case "search":
		return handleSessionSearch(st, parser)
	case "export":
		return handleSessionExport(st, cfg, parser)
	case "delete", "rm":
		return handleSessionDelete(st, parser)
	case "cleanup":
		return handleSessionCleanup(st, cfg, parser)
	case "clear":
		return handleSessionClear(st, parser)
	default:
		return ErrMissingArgument(
			fmt.Sprintf("unknown session subcommand %q", parser.Subcommand()),
			"forgechat session list|show|search|export|delete|cleanup|clear")
	}
}

// resolveSessionID expands a unique ID prefix to a full session ID.
func resolveSessionID(st *store.Store, prefix string) (string, error) {
	if st.Exists(prefix) {
		return prefix, nil
	}

	metas, err := st.List()
	if err != nil {
		return "", err
	}

	var matches []string
	for _, m := range metas {
		if strings.HasPrefix(m.ID, prefix) {
			matches = append(matches, m.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", &store.StoreError{Op: "resolve", SessionID: prefix, Err: store.ErrSessionNotFound}
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("session ID prefix %q is ambiguous (%d matches)", prefix, len(matches))
	}
}

func handleSessionList(st *store.Store) error {
	metas, err := st.List()
	if err != nil {
		return NewCommandError("session", "list", "", err)
	}
	if len(metas) == 0 {
		fmt.Println(DimStyle.Render("No saved sessions."))
		return nil
	}

	printSessionTable(metas)
	return nil
}

func printSessionTable(metas []model.SessionMeta) {
	fmt.Printf("%s  %-40s %8s %8s  %s\n",
		DimStyle.Render("ID      "),
		DimStyle.Render("Title"),
		DimStyle.Render("Msgs"),
		DimStyle.Render("Tokens"),
		DimStyle.Render("Updated"))

	for _, m := range metas {
		fmt.Printf("%s  %-40s %8d %8s  %s\n",
			ValueStyle.Render(util.TruncateRunes(m.ID, 8)),
			util.TruncateWidth(m.Title, 40),
			m.MessageCount,
			formatNumber(m.TotalTokens),
			formatRelativeTime(m.UpdatedAt))
	}
}

func handleSessionShow(st *store.Store, parser *ArgParser) error {
	prefix := parser.Positional(1)
	if prefix == "" {
		return ErrMissingArgument("missing session ID", "forgechat session show <id>")
	}

	id, err := resolveSessionID(st, prefix)
	if err != nil {
		return NewCommandError("session", "show", prefix, err)
	}
	sess, err := st.Load(id)
	if err != nil {
		return NewCommandError("session", "show", id, err)
	}

	fmt.Println(TitleStyle.Render(sess.Title))
	fmt.Println(RenderSeparator(util.StringWidth(sess.Title)))
	if sess.Model != "" {
		fmt.Printf("%s %s\n", LabelStyle.Render("Model"), sess.Model)
	}
	fmt.Printf("%s %d\n", LabelStyle.Render("Messages"), len(sess.Messages))
	if sess.TotalTokens > 0 {
		fmt.Printf("%s %s\n", LabelStyle.Render("Tokens"), formatNumber(sess.TotalTokens))
	}
	if sess.TotalCost > 0 {
		fmt.Printf("%s $%.4f\n", LabelStyle.Render("Cost"), sess.TotalCost)
	}
	fmt.Println()

	for _, msg := range sess.Messages {
		switch msg.Role {
		case model.RoleUser:
			fmt.Println(UserStyle.Render("You:"))
			fmt.Println(msg.Content)
		case model.RoleAssistant:
			fmt.Println(AssistantStyle.Render("Assistant:"))
			displayResponse(msg.Content)
			fmt.Println()
		default:
			fmt.Println(DimStyle.Render(string(msg.Role) + ":"))
			fmt.Println(DimStyle.Render(msg.Content))
		}
		fmt.Println()
	}
	return nil
}

func handleSessionSearch(st *store.Store, parser *ArgParser) error {
	query := JoinPositionalArgs(parser, 1)
	if query == "" {
		return ErrMissingArgument("missing search text", "forgechat session search <text>")
	}

	metas, err := st.Search(query)
	if err != nil {
		return NewCommandError("session", "search", query, err)
	}
	if len(metas) == 0 {
		fmt.Println(DimStyle.Render("No sessions match."))
		return nil
	}

	printSessionTable(metas)
	return nil
}

func handleSessionExport(st *store.Store, cfg *config.Config, parser *ArgParser) error {
	prefix := parser.Positional(1)
	if prefix == "" {
		return ErrMissingArgument("missing session ID", "forgechat session export <id> [--format json|markdown|html]")
	}

	id, err := resolveSessionID(st, prefix)
	if err != nil {
		return NewCommandError("session", "export", prefix, err)
	}
	sess, err := st.Load(id)
	if err != nil {
		return NewCommandError("session", "export", id, err)
	}

	opts := export.DefaultOptions()
	opts.OutputDir = parser.FlagOrDefault("output", cfg.Export.OutputDir)
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	opts.Theme = cfg.Export.Theme
	opts.OpenAfterExport = cfg.Export.OpenAfterExport || parser.BoolFlag("open")

	format := parser.FlagOrDefault("format", "markdown")
	exporter, err := export.For(format, opts)
	if err != nil {
		return ErrMissingArgument(err.Error(), "forgechat session export <id> --format json|markdown|html")
	}

	path, err := export.ExportToFile(sess, exporter, opts)
	if err != nil {
		return NewCommandError("session", "export", id, err)
	}
	fmt.Printf("%s exported to %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}

func handleSessionDelete(st *store.Store, parser *ArgParser) error {
	prefix := parser.Positional(1)
	if prefix == "" {
		return ErrMissingArgument("missing session ID", "forgechat session delete <id> --confirm")
	}
	if !parser.BoolFlag("confirm") {
		return ErrMissingArgument("deletion requires --confirm", "forgechat session delete <id> --confirm")
	}

	id, err := resolveSessionID(st, prefix)
	if err != nil {
		return NewCommandError("session", "delete", prefix, err)
	}
	if err := st.Delete(id); err != nil {
		return NewCommandError("session", "delete", id, err)
	}
	st.RemoveRecent(id)

	fmt.Printf("%s deleted session %s\n", SuccessStyle.Render("[OK]"), id)
	return nil
}

func handleSessionCleanup(st *store.Store, cfg *config.Config, parser *ArgParser) error {
	days := cfg.Session.RetentionDays
	if parser.HasFlag("days") {
		var err error
		days, err = ParsePositiveInt(parser.Flag("days"), "days")
		if err != nil {
			return ErrMissingArgument(err.Error(), "forgechat session cleanup --days <n>")
		}
	}
	if days <= 0 {
		fmt.Println(DimStyle.Render("Retention is disabled, nothing to clean up."))
		return nil
	}

	removed, err := st.CleanupOlderThan(days)
	if err != nil {
		return NewCommandError("session", "cleanup", "", err)
	}
	fmt.Printf("%s removed %d sessions older than %d days\n",
		SuccessStyle.Render("[OK]"), removed, days)
	return nil
}

func handleSessionClear(st *store.Store, parser *ArgParser) error {
	if !parser.BoolFlag("confirm") {
		return ErrMissingArgument("clearing all sessions requires --confirm", "forgechat session clear --confirm")
	}

	removed, err := st.Clear()
	if err != nil {
		return NewCommandError("session", "clear", "", err)
	}
	fmt.Printf("%s removed %d sessions\n", SuccessStyle.Render("[OK]"), removed)
	return nil
}
