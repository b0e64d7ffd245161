// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for forgechat CLI.
//
// Handles the "forgechat chat" command (also the default command),
// an interactive REPL that streams agent responses into a persistent
// session.
//
// Command: chat
// Short:   Start an interactive chat session
//
// Examples:
//
//	forgechat                          Start a new chat session
//	forgechat --resume                 Reopen the most recent session
//	forgechat chat --model opus        Use a specific model
//	forgechat chat --rules team.xml    Apply a rules file
//
// Flags:
//
//	--resume            Reopen the most recent session
//	--model NAME        Use a specific model (overrides config)
//	--rules FILE        Rules file applied to this session
//	-v, --verbose       Verbose output
//	-q, --quiet         Minimal output
//
// Interactive Commands (during chat):
//
//	/help, /h           Show available commands
//	/save               Save the session now
//	/rules [file]       Show or replace the session rules
//	/model [name]       Show or switch model
//	/tasks              Show session subtasks
//	/history            Show conversation history
//	/status, /s         Show session statistics
//	/clear, /c          Start a fresh session
//	/quit, /q           Exit chat
//	Ctrl+C              Cancel current response
//	Ctrl+D              Exit chat
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/forgechat/internal/agent"
	"github.com/jeranaias/forgechat/internal/config"
	"github.com/jeranaias/forgechat/internal/model"
	"github.com/jeranaias/forgechat/internal/rules"
	"github.com/jeranaias/forgechat/internal/session"
	"github.com/jeranaias/forgechat/internal/store"
	"github.com/jeranaias/forgechat/internal/worker"
)

// ===== INPUT HISTORY =====

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}

	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt. Supports
// history navigation with arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0755); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// ===== CHAT STATE =====

// ChatState holds the runtime state of an interactive chat.
type ChatState struct {
	Manager *session.Manager
	Config  *config.Config
	Client  *agent.Client
	Quiet   bool
	Verbose bool

	StartTime  time.Time
	QueryCount int

	InputCLI *ChatCLI

	// mu guards active and pendingRules. The signal goroutine stops
	// the worker the REPL goroutine started, and the rules watcher
	// hands reloaded XML to the REPL goroutine.
	mu           sync.Mutex
	active       *worker.QueryWorker
	pendingRules *string
}

func (s *ChatState) setActive(w *worker.QueryWorker) {
	s.mu.Lock()
	s.active = w
	s.mu.Unlock()
}

func (s *ChatState) stopActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return false
	}
	s.active.Stop()
	s.active = nil
	return true
}

// queueRules stages reloaded rules XML for the next message.
func (s *ChatState) queueRules(source string) {
	s.mu.Lock()
	s.pendingRules = &source
	s.mu.Unlock()
}

// takeRules returns staged rules XML, if any, and clears the slot.
func (s *ChatState) takeRules() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingRules == nil {
		return "", false
	}
	source := *s.pendingRules
	s.pendingRules = nil
	return source, true
}

// ===== CHAT HANDLER =====

// HandleChat handles the "chat" command with full interactive support.
func HandleChat(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("chat", "load config", "", err)
	}

	st, err := store.Open(cfg.Session.StoragePath)
	if err != nil {
		return NewCommandError("chat", "open session store", "", err)
	}

	defaultRules, rulesPath, err := loadDefaultRulesSource(cfg, args)
	if err != nil {
		return err
	}

	mgr := session.NewManager(st, session.Config{
		AutoSaveEnabled:  cfg.Session.AutoSaveEnabled,
		AutoSaveInterval: time.Duration(cfg.Session.AutoSaveIntervalSecs) * time.Second,
		MaxRecent:        cfg.Session.MaxRecentSessions,
		Defaults: session.Defaults{
			Model:        cfg.Query.DefaultModel,
			SystemPrompt: cfg.Query.DefaultSystemPrompt,
			Tools:        cfg.Query.DefaultTools,
			Rules:        defaultRules,
		},
	})

	sess, err := openChatSession(mgr, cfg, args)
	if err != nil {
		return NewCommandError("chat", "open session", "", err)
	}
	if args.Model != "" {
		sess.Model = args.Model
		mgr.MarkDirty()
	}

	state := &ChatState{
		Manager:   mgr,
		Config:    cfg,
		Client:    newAgentClient(cfg),
		Quiet:     args.Quiet,
		Verbose:   args.Verbose,
		StartTime: time.Now(),
		InputCLI:  NewChatCLI(),
	}
	defer state.InputCLI.Close()

	// Live-reload the rules file: edits land on the next message.
	if rulesPath != "" {
		w, werr := rules.Watch(rulesPath, time.Second, func(set rules.RuleSet, rerr error) {
			if rerr != nil {
				fmt.Fprintf(os.Stderr, "%s rules reload: %v\n", WarningStyle.Render("[Warning]"), rerr)
				return
			}
			state.queueRules(rules.Serialize(set))
			fmt.Fprintln(os.Stderr, DimStyle.Render("[Rules file changed, applied to next message]"))
		})
		if werr != nil {
			fmt.Fprintf(os.Stderr, "%s cannot watch %s: %v\n", WarningStyle.Render("[Warning]"), rulesPath, werr)
		} else {
			defer w.Close()
		}
	}

	if !state.Quiet {
		printWelcome(state)
	}

	// First Ctrl+C during a response cancels it. At the prompt, liner
	// turns Ctrl+C into ErrPromptAborted instead.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if state.stopActive() {
				fmt.Fprintln(os.Stderr, "\n"+WarningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		input, err := state.InputCLI.ReadInput(PromptStyle.Render("forgechat> "))
		if err != nil {
			// Ctrl+C at the prompt or Ctrl+D both exit gracefully.
			fmt.Println()
			return finishChat(state)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			keepGoing, err := handleSlashCommand(input, state)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				return finishChat(state)
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return finishChat(state)
		}

		if err := processMessage(state, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}

		if err := state.Manager.Check(); err != nil {
			fmt.Fprintf(os.Stderr, "%s auto-save failed: %v\n",
				WarningStyle.Render("[Warning]"), err)
		}
	}
}

// openChatSession restores the last session or creates a fresh one.
func openChatSession(mgr *session.Manager, cfg *config.Config, args Args) (*model.Session, error) {
	if args.Resume || cfg.Session.RestoreLastSession {
		sess, err := mgr.RestoreLast()
		if err != nil {
			return nil, err
		}
		if sess != nil {
			return sess, nil
		}
		if args.Resume {
			fmt.Fprintln(os.Stderr, WarningStyle.Render("[Warning]")+" nothing to resume, starting fresh")
		}
	}
	return mgr.New("")
}

// loadDefaultRulesSource reads the XML source of the default rules
// file, validating it on the way. A missing default file is fine; an
// explicitly requested file must exist and parse. Returns the path so
// the caller can watch it for changes, empty when no file was loaded.
func loadDefaultRulesSource(cfg *config.Config, args Args) (source, path string, err error) {
	path = args.Rules
	explicit := path != ""
	if path == "" {
		path = cfg.Query.DefaultRulesPath
	}
	if path == "" {
		return "", "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return "", "", nil
		}
		return "", "", NewCommandError("chat", "load rules", path, err)
	}
	if _, err := rules.Parse(string(data)); err != nil {
		return "", "", NewCommandError("chat", "parse rules", path, err)
	}
	return string(data), path, nil
}

// finishChat saves pending changes and prints the session summary.
func finishChat(state *ChatState) error {
	if err := state.Manager.SaveIfDirty(); err != nil {
		fmt.Fprintf(os.Stderr, "%s save failed: %v\n", ErrorStyle.Render("[Error]"), err)
	}
	if !state.Quiet {
		printExitSummary(state)
	}
	return nil
}

// ===== MESSAGE PROCESSING =====

// processMessage sends a message through the agent and streams the
// response into the session transcript.
func processMessage(state *ChatState, input string) error {
	sess := state.Manager.Current()
	if sess == nil {
		return fmt.Errorf("no active session")
	}

	if source, ok := state.takeRules(); ok {
		sess.CustomRules = source
		state.Manager.MarkDirty()
	}

	qc, err := sessionQueryConfig(state.Config, sess)
	if err != nil {
		return err
	}

	sess.AddMessage(model.RoleUser, input)
	state.Manager.MarkDirty()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	useMarkdown := IsStdoutTTY()
	var response strings.Builder
	var result *agent.ResultInfo
	start := time.Now()

	fmt.Println()

	w := worker.NewQueryWorker(state.Client, input, qc, worker.Events{
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
	state.setActive(w)
	err = w.Run(ctx)
	state.setActive(nil)

	if w.Stopped() {
		// Cancelled mid-response. Keep what arrived, if anything.
		if response.Len() > 0 {
			sess.AddMessage(model.RoleAssistant, response.String())
		}
		state.Manager.MarkDirty()
		fmt.Println()
		return nil
	}
	if err != nil {
		// Drop the user message so a retry does not duplicate it.
		if n := len(sess.Messages); n > 0 {
			sess.Messages = sess.Messages[:n-1]
		}
		return fmt.Errorf("query failed: %w", err)
	}

	if useMarkdown {
		displayResponse(response.String())
	}
	fmt.Println()
	fmt.Println()

	sess.AddMessage(model.RoleAssistant, response.String())
	if result != nil {
		sess.AgentSessionID = result.SessionID
		sess.AddUsage(result.TotalTokens(), result.TotalCostUSD)
	}
	state.Manager.MarkDirty()
	state.QueryCount++

	if !state.Quiet && result != nil {
		showBriefStats(state, result, time.Since(start))
	}
	return nil
}

// sessionQueryConfig overlays the session's own settings on the
// configured defaults.
func sessionQueryConfig(cfg *config.Config, sess *model.Session) (agent.QueryConfig, error) {
	base := agent.QueryConfig{
		Model:          cfg.Query.DefaultModel,
		MaxTurns:       cfg.Query.MaxTurns,
		AllowedTools:   cfg.Query.DefaultTools,
		PermissionMode: agent.PermissionMode(cfg.Query.PermissionMode),
	}

	rulesBlock := ""
	if sess.CustomRules != "" {
		set, err := rules.Parse(sess.CustomRules)
		if err != nil {
			return agent.QueryConfig{}, fmt.Errorf("session rules: %w", err)
		}
		rulesBlock = rules.RenderPrompt(set)
	}

	return base.Merge(agent.QueryConfig{
		Model:           sess.Model,
		SystemPrompt:    agent.BuildSystemPrompt(sess.SystemPrompt, rulesBlock),
		AllowedTools:    sess.ToolsEnabled,
		ResumeSessionID: sess.AgentSessionID,
	}), nil
}

// showBriefStats prints per-response usage on stderr.
func showBriefStats(state *ChatState, res *agent.ResultInfo, elapsed time.Duration) {
	parts := []string{elapsed.Round(time.Millisecond).String()}
	if state.Config.UI.ShowTokens {
		if tokens := res.TotalTokens(); tokens > 0 {
			parts = append(parts, fmt.Sprintf("%s tokens", formatNumber(tokens)))
		}
	}
	if state.Config.UI.ShowCost && res.TotalCostUSD > 0 {
		parts = append(parts, fmt.Sprintf("$%.4f", res.TotalCostUSD))
	}
	if res.NumTurns > 1 {
		parts = append(parts, fmt.Sprintf("%d turns", res.NumTurns))
	}
	fmt.Fprintln(os.Stderr, DimStyle.Render(strings.Join(parts, " | ")))
}

// ===== SLASH COMMANDS =====

// handleSlashCommand dispatches a /command. The bool result is false
// when the REPL should exit.
func handleSlashCommand(cmd string, state *ChatState) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		printChatHelp()
		return true, nil

	case "/save":
		if err := state.Manager.Save(); err != nil {
			return true, err
		}
		fmt.Println(SuccessStyle.Render("[Saved]"))
		return true, nil

	case "/rules":
		return true, handleRulesCommand(state, args)

	case "/model", "/m":
		return true, handleModelCommand(state, args)

	case "/tasks":
		printTasks(state)
		return true, nil

	case "/history":
		printHistory(state)
		return true, nil

	case "/status", "/s":
		printStatus(state)
		return true, nil

	case "/clear", "/c":
		if _, err := state.Manager.New(""); err != nil {
			return true, err
		}
		fmt.Println(SuccessStyle.Render("[New session started]"))
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// handleRulesCommand shows or replaces the session rules.
func handleRulesCommand(state *ChatState, args []string) error {
	sess := state.Manager.Current()
	if sess == nil {
		return fmt.Errorf("no active session")
	}

	if len(args) == 0 {
		if sess.CustomRules == "" {
			fmt.Println(DimStyle.Render("[No rules active]"))
			return nil
		}
		set, err := rules.Parse(sess.CustomRules)
		if err != nil {
			return fmt.Errorf("session rules: %w", err)
		}
		fmt.Printf("%s %d rules, %d enabled\n",
			LabelStyle.Render("[Rules]"), len(set), len(set.Enabled()))
		return nil
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	set, err := rules.Parse(string(data))
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	sess.CustomRules = string(data)
	state.Manager.MarkDirty()
	fmt.Printf("%s loaded %s (%d rules, %d enabled)\n",
		SuccessStyle.Render("[OK]"), path, len(set), len(set.Enabled()))
	return nil
}

// handleModelCommand shows or switches the session model.
func handleModelCommand(state *ChatState, args []string) error {
	sess := state.Manager.Current()
	if sess == nil {
		return fmt.Errorf("no active session")
	}

	if len(args) == 0 {
		current := sess.Model
		if current == "" {
			current = state.Config.Query.DefaultModel
		}
		if current == "" {
			current = "(backend default)"
		}
		fmt.Printf("%s %s\n", LabelStyle.Render("[Model]"), ValueStyle.Render(current))
		return nil
	}

	sess.Model = args[0]
	state.Manager.MarkDirty()
	fmt.Printf("%s switched to model: %s\n", SuccessStyle.Render("[OK]"), args[0])
	return nil
}

// ===== DISPLAY =====

// printWelcome prints the welcome banner.
func printWelcome(state *ChatState) {
	sess := state.Manager.Current()

	fmt.Println()
	fmt.Println(TitleStyle.Render("forgechat interactive chat"))
	fmt.Println(RenderSeparator(30))
	if sess != nil {
		fmt.Printf("%s %s\n", LabelStyle.Render("Session:"), ValueStyle.Render(sess.Title))
		modelName := sess.Model
		if modelName == "" {
			modelName = "(backend default)"
		}
		fmt.Printf("%s %s\n", LabelStyle.Render("Model:"), ValueStyle.Render(modelName))
		if sess.CustomRules != "" {
			if set, err := rules.Parse(sess.CustomRules); err == nil {
				fmt.Printf("%s %d enabled\n", LabelStyle.Render("Rules:"), len(set.Enabled()))
			}
		}
		if len(sess.Messages) > 0 {
			fmt.Printf("%s %d messages\n", LabelStyle.Render("Resumed:"), len(sess.Messages))
		}
	}
	fmt.Println()
	fmt.Println(DimStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printChatHelp prints the interactive command list.
func printChatHelp() {
	fmt.Println()
	fmt.Println(TitleStyle.Render("Available Commands"))
	fmt.Println(RenderSeparator(20))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/save", "Save the session now"},
		{"/rules [file]", "Show or replace the session rules"},
		{"/model [name]", "Show or switch model"},
		{"/tasks", "Show session subtasks"},
		{"/history", "Show conversation history"},
		{"/status, /s", "Show session statistics"},
		{"/clear, /c", "Start a fresh session"},
		{"/quit, /q", "Exit chat"},
	}
	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			ValueStyle.Render(fmt.Sprintf("%-15s", c.cmd)),
			DimStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(DimStyle.Render("Tip: Ctrl+C cancels the current response, Ctrl+D exits"))
	fmt.Println()
}

// printTasks prints the session subtasks.
func printTasks(state *ChatState) {
	sess := state.Manager.Current()
	if sess == nil || len(sess.Subtasks) == 0 {
		fmt.Println(DimStyle.Render("[No subtasks]"))
		return
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Subtasks"))
	fmt.Println(RenderSeparator(20))
	for i, t := range sess.Subtasks {
		box := "[ ]"
		if t.Completed {
			box = SuccessStyle.Render("[x]")
		}
		fmt.Printf("  %d. %s %s\n", i+1, box, t.Title)
		if t.Description != "" {
			fmt.Printf("         %s\n", DimStyle.Render(t.Description))
		}
	}
	fmt.Println()
}

// printHistory prints the conversation transcript, truncated.
func printHistory(state *ChatState) {
	sess := state.Manager.Current()
	if sess == nil || len(sess.Messages) == 0 {
		fmt.Println(DimStyle.Render("[No messages yet]"))
		return
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Conversation History"))
	fmt.Println(RenderSeparator(25))
	fmt.Println()

	for i, msg := range sess.Messages {
		var role string
		switch msg.Role {
		case model.RoleUser:
			role = UserStyle.Render("You")
		case model.RoleAssistant:
			role = AssistantStyle.Render("Assistant")
		default:
			role = WarningStyle.Render(string(msg.Role))
		}

		fmt.Printf("  %d. %s: %s\n", i+1, role, msg.Preview(100))
	}
	fmt.Println()
}

// printStatus prints current session statistics.
func printStatus(state *ChatState) {
	sess := state.Manager.Current()
	elapsed := time.Since(state.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(TitleStyle.Render("Session Status"))
	fmt.Println(RenderSeparator(20))
	fmt.Println()

	if sess != nil {
		fmt.Printf("  %s %s\n", LabelStyle.Render("Title:"), ValueStyle.Render(sess.Title))
		fmt.Printf("  %s %s\n", LabelStyle.Render("ID:"), DimStyle.Render(sess.ID))
		fmt.Printf("  %s %d messages\n", LabelStyle.Render("History:"), len(sess.Messages))
		if state.Config.UI.ShowTokens {
			fmt.Printf("  %s %s\n", LabelStyle.Render("Tokens:"), formatNumber(sess.TotalTokens))
		}
		if state.Config.UI.ShowCost {
			fmt.Printf("  %s $%.4f\n", LabelStyle.Render("Cost:"), sess.TotalCost)
		}
		saved := "unsaved changes"
		if !state.Manager.IsDirty() {
			saved = "saved"
		}
		fmt.Printf("  %s %s\n", LabelStyle.Render("State:"), saved)
	}
	fmt.Printf("  %s %s\n", LabelStyle.Render("Duration:"), elapsed.String())
	fmt.Printf("  %s %d\n", LabelStyle.Render("Queries:"), state.QueryCount)
	fmt.Println()
}

// printExitSummary prints the session summary on exit.
func printExitSummary(state *ChatState) {
	if state.QueryCount == 0 {
		fmt.Println(DimStyle.Render("Goodbye!"))
		return
	}

	sess := state.Manager.Current()
	elapsed := time.Since(state.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(TitleStyle.Render("Session Summary"))
	fmt.Println(RenderSeparator(15))
	fmt.Printf("  %s %d\n", LabelStyle.Render("Queries:"), state.QueryCount)
	if sess != nil {
		if state.Config.UI.ShowTokens {
			fmt.Printf("  %s %s\n", LabelStyle.Render("Tokens:"), formatNumber(sess.TotalTokens))
		}
		if state.Config.UI.ShowCost && sess.TotalCost > 0 {
			fmt.Printf("  %s $%.4f\n", LabelStyle.Render("Cost:"), sess.TotalCost)
		}
	}
	fmt.Printf("  %s %s\n", LabelStyle.Render("Duration:"), elapsed.String())
	fmt.Println()
	fmt.Println(DimStyle.Render("Goodbye!"))
}
