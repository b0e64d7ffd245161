// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot query command for forgechat CLI.
//
// Command: ask [question]
//
// Examples:
//
//	forgechat ask "Why does this test flake?"
//	forgechat ask --model sonnet "Summarize the diff"
//	forgechat ask --rules team.xml "Review my changes"
//
// The response streams to stdout. On a TTY it is collected and rendered
// as markdown; piped output stays plain. Ctrl+C cancels the query.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jeranaias/forgechat/internal/agent"
	"github.com/jeranaias/forgechat/internal/config"
	"github.com/jeranaias/forgechat/internal/rules"
	"github.com/jeranaias/forgechat/internal/worker"
)

// HandleAsk handles the "ask" command.
func HandleAsk(args Args) error {
	if strings.TrimSpace(args.Query) == "" {
		return ErrMissingArgument("missing question", `forgechat ask "question"`)
	}

	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("ask", "load config", "", err)
	}

	client := newAgentClient(cfg)
	qc, err := buildQueryConfig(cfg, args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	useMarkdown := IsStdoutTTY()
	var response strings.Builder
	var result *agent.ResultInfo
	start := time.Now()

	w := worker.NewQueryWorker(client, args.Query, qc, worker.Events{
		OnEvent: func(ev agent.Event) {
			if ev.Type != agent.EventAssistant {
				return
			}
			text := ev.Text()
			response.WriteString(text)
			if !useMarkdown {
				fmt.Print(text)
			}
		},
		OnResult: func(res *agent.ResultInfo) {
			result = res
		},
	})

	// Ctrl+C cancels the in-flight query.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			w.Stop()
		case <-w.Done():
		}
	}()

	if err := w.Run(ctx); err != nil {
		return NewCommandError("ask", "query", "", err)
	}
	if w.Stopped() {
		fmt.Fprintln(os.Stderr, "\n"+WarningStyle.Render("[Cancelled]"))
		return nil
	}

	if useMarkdown {
		displayResponse(response.String())
	}
	fmt.Println()

	if !args.Quiet && result != nil {
		showResultStats(result, time.Since(start))
	}
	return nil
}

// newAgentClient builds a backend client from config.
func newAgentClient(cfg *config.Config) *agent.Client {
	return agent.NewClient(cfg.Agent.BaseURL,
		agent.WithTimeout(time.Duration(cfg.Agent.TimeoutSecs)*time.Second),
		agent.WithMaxRetries(cfg.Agent.MaxRetries),
	)
}

// buildQueryConfig merges global flags, config defaults, and the rules
// file into the query options sent to the backend.
func buildQueryConfig(cfg *config.Config, args Args) (agent.QueryConfig, error) {
	qc := agent.QueryConfig{
		Model:          cfg.Query.DefaultModel,
		MaxTurns:       cfg.Query.MaxTurns,
		AllowedTools:   cfg.Query.DefaultTools,
		PermissionMode: agent.PermissionMode(cfg.Query.PermissionMode),
	}
	if args.Model != "" {
		qc.Model = args.Model
	}

	rulesBlock, err := loadRulesBlock(cfg, args)
	if err != nil {
		return agent.QueryConfig{}, err
	}
	qc.SystemPrompt = agent.BuildSystemPrompt(cfg.Query.DefaultSystemPrompt, rulesBlock)

	return qc, nil
}

// loadRulesBlock renders the prompt block from the active rules file.
// A missing default file is not an error; an explicitly requested file
// must exist and parse.
func loadRulesBlock(cfg *config.Config, args Args) (string, error) {
	path := args.Rules
	explicit := path != ""
	if path == "" {
		path = cfg.Query.DefaultRulesPath
	}
	if path == "" {
		return "", nil
	}

	set, err := rules.ParseFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", NewCommandError("ask", "load rules", path, err)
	}
	return rules.RenderPrompt(set), nil
}

// showResultStats prints token and cost usage after a response.
func showResultStats(res *agent.ResultInfo, elapsed time.Duration) {
	parts := []string{elapsed.Round(time.Millisecond).String()}
	if tokens := res.TotalTokens(); tokens > 0 {
		parts = append(parts, fmt.Sprintf("%s tokens", formatNumber(tokens)))
	}
	if res.TotalCostUSD > 0 {
		parts = append(parts, fmt.Sprintf("$%.4f", res.TotalCostUSD))
	}
	if res.NumTurns > 1 {
		parts = append(parts, fmt.Sprintf("%d turns", res.NumTurns))
	}
	fmt.Fprintf(os.Stderr, "%s %s\n",
		DimStyle.Render("[Stats]"),
		DimStyle.Render(strings.Join(parts, " | ")))
}
