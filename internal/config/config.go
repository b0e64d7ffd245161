// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// ===== CONFIG STRUCTURES =====

// Config is the complete forgechat configuration.
type Config struct {
	Version string `toml:"version"`

	Session SessionConfig `toml:"session"`
	Query   QueryConfig   `toml:"query"`
	Agent   AgentConfig   `toml:"agent"`
	Export  ExportConfig  `toml:"export"`
	UI      UIConfig      `toml:"ui"`
}

// SessionConfig controls session persistence.
type SessionConfig struct {
	// StoragePath is the session directory. Empty selects
	// ~/.forgechat/sessions.
	StoragePath string `toml:"storage_path"`

	AutoSaveEnabled      bool `toml:"auto_save_enabled"`
	AutoSaveIntervalSecs int  `toml:"auto_save_interval_secs"`

	// MaxRecentSessions bounds the recent-session list.
	MaxRecentSessions int `toml:"max_recent_sessions"`

	// RestoreLastSession reopens the most recent session when the
	// chat starts without an explicit session.
	RestoreLastSession bool `toml:"restore_last_session"`

	// RetentionDays is how long unused sessions are kept by the
	// cleanup command. 0 disables cleanup.
	RetentionDays int `toml:"retention_days"`
}

// QueryConfig holds the defaults applied to new sessions and queries.
type QueryConfig struct {
	DefaultModel        string   `toml:"default_model"`
	DefaultSystemPrompt string   `toml:"default_system_prompt"`
	DefaultTools        []string `toml:"default_tools"`

	// DefaultRulesPath points at an XML rules document applied to
	// sessions that have no rules of their own.
	DefaultRulesPath string `toml:"default_rules_path"`

	// PermissionMode: "default", "acceptEdits", "bypassPermissions",
	// or "plan".
	PermissionMode string `toml:"permission_mode"`

	// MaxTurns bounds agentic turns per query. 0 means unlimited.
	MaxTurns int `toml:"max_turns"`
}

// AgentConfig configures the connection to the agent backend.
type AgentConfig struct {
	BaseURL     string `toml:"base_url"`
	TimeoutSecs int    `toml:"timeout_secs"`
	MaxRetries  int    `toml:"max_retries"`
}

// ExportConfig controls transcript export.
type ExportConfig struct {
	// Formats lists the enabled export formats: "json", "markdown",
	// "html".
	Formats []string `toml:"formats"`

	// OutputDir is where exports are written. Empty means the
	// current directory.
	OutputDir string `toml:"output_dir"`

	OpenAfterExport bool `toml:"open_after_export"`

	// Theme for HTML export: "light" or "dark".
	Theme string `toml:"theme"`
}

// UIConfig holds terminal display preferences.
type UIConfig struct {
	// Theme: "dark", "light", or "none" to disable styling.
	Theme string `toml:"theme"`

	ShowCost   bool `toml:"show_cost"`
	ShowTokens bool `toml:"show_tokens"`
}

// ===== DEFAULTS =====

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Session: SessionConfig{
			AutoSaveEnabled:      true,
			AutoSaveIntervalSecs: 300,
			MaxRecentSessions:    10,
			RestoreLastSession:   true,
			RetentionDays:        30,
		},
		Query: QueryConfig{
			PermissionMode: "acceptEdits",
		},
		Agent: AgentConfig{
			BaseURL:     "http://127.0.0.1:8315",
			TimeoutSecs: 300,
			MaxRetries:  3,
		},
		Export: ExportConfig{
			Formats:         []string{"json", "markdown", "html"},
			OpenAfterExport: false,
			Theme:           "dark",
		},
		UI: UIConfig{
			Theme:      "dark",
			ShowCost:   true,
			ShowTokens: true,
		},
	}
}

// ===== PATHS =====

// Dir returns the config directory, ~/.forgechat.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".forgechat"), nil
}

// Path returns the config file path, ~/.forgechat/config.toml.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ===== LOAD =====

// Load reads the config file, fills defaults, applies environment
// overrides, and validates. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath reads a config file from an explicit location.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// fillDefaults fills any missing values from Default.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Session.AutoSaveIntervalSecs == 0 {
		c.Session.AutoSaveIntervalSecs = defaults.Session.AutoSaveIntervalSecs
	}
	if c.Session.MaxRecentSessions == 0 {
		c.Session.MaxRecentSessions = defaults.Session.MaxRecentSessions
	}
	if c.Query.PermissionMode == "" {
		c.Query.PermissionMode = defaults.Query.PermissionMode
	}
	if c.Agent.BaseURL == "" {
		c.Agent.BaseURL = defaults.Agent.BaseURL
	}
	if c.Agent.TimeoutSecs == 0 {
		c.Agent.TimeoutSecs = defaults.Agent.TimeoutSecs
	}
	if c.Agent.MaxRetries == 0 {
		c.Agent.MaxRetries = defaults.Agent.MaxRetries
	}
	if len(c.Export.Formats) == 0 {
		c.Export.Formats = append([]string(nil), defaults.Export.Formats...)
	}
	if c.Export.Theme == "" {
		c.Export.Theme = defaults.Export.Theme
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// ===== ENVIRONMENT OVERRIDES =====

// ApplyEnvOverrides applies FORGECHAT_* environment variables on top
// of the loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("FORGECHAT_MODEL"); v != "" {
		c.Query.DefaultModel = v
	}
	if v := os.Getenv("FORGECHAT_AGENT_URL"); v != "" {
		c.Agent.BaseURL = v
	}
	if v := os.Getenv("FORGECHAT_STORAGE"); v != "" {
		c.Session.StoragePath = v
	}
	if v := os.Getenv("FORGECHAT_PERMISSION_MODE"); v != "" {
		c.Query.PermissionMode = v
	}
	if v := os.Getenv("FORGECHAT_RULES"); v != "" {
		c.Query.DefaultRulesPath = v
	}
	if v := os.Getenv("FORGECHAT_MAX_TURNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Query.MaxTurns = n
		}
	}
	if v := os.Getenv("FORGECHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// ===== VALIDATION =====

// ValidationError reports a single invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects validation failures.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

var validPermissionModes = map[string]bool{
	"default":           true,
	"acceptEdits":       true,
	"bypassPermissions": true,
	"plan":              true,
}

var validExportFormats = map[string]bool{
	"json":     true,
	"markdown": true,
	"html":     true,
}

// Validate checks the configuration and returns all problems at once
// as ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if !validPermissionModes[c.Query.PermissionMode] {
		errs = append(errs, ValidationError{
			Field:   "query.permission_mode",
			Message: fmt.Sprintf("invalid mode %q, must be one of: default, acceptEdits, bypassPermissions, plan", c.Query.PermissionMode),
		})
	}
	if c.Query.MaxTurns < 0 {
		errs = append(errs, ValidationError{
			Field:   "query.max_turns",
			Message: "must not be negative",
		})
	}
	if c.Session.RetentionDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "session.retention_days",
			Message: "must not be negative",
		})
	}
	if c.Session.AutoSaveIntervalSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "session.auto_save_interval_secs",
			Message: "must not be negative",
		})
	}
	if !strings.HasPrefix(c.Agent.BaseURL, "http://") && !strings.HasPrefix(c.Agent.BaseURL, "https://") {
		errs = append(errs, ValidationError{
			Field:   "agent.base_url",
			Message: "must be an http or https URL",
		})
	}
	for _, f := range c.Export.Formats {
		if !validExportFormats[f] {
			errs = append(errs, ValidationError{
				Field:   "export.formats",
				Message: fmt.Sprintf("unknown format %q, must be one of: json, markdown, html", f),
			})
		}
	}
	switch c.Export.Theme {
	case "light", "dark":
	default:
		errs = append(errs, ValidationError{
			Field:   "export.theme",
			Message: fmt.Sprintf("invalid theme %q, must be light or dark", c.Export.Theme),
		})
	}
	switch c.UI.Theme {
	case "dark", "light", "none":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme %q, must be dark, light, or none", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ===== SAVE =====

// Save writes the configuration to the default path with a header
// comment and owner-only permissions.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the configuration to an explicit path.
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# forgechat configuration file")
	fmt.Fprintln(file, "# Generated by forgechat - edit with care")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// ===== ACCESSORS =====

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Query.DefaultTools = append([]string(nil), c.Query.DefaultTools...)
	out.Export.Formats = append([]string(nil), c.Export.Formats...)
	return &out
}

// Get reads a config value by dotted key, for the config CLI.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "session.storage_path":
		return c.Session.StoragePath, nil
	case "session.auto_save_enabled":
		return strconv.FormatBool(c.Session.AutoSaveEnabled), nil
	case "session.auto_save_interval_secs":
		return strconv.Itoa(c.Session.AutoSaveIntervalSecs), nil
	case "session.max_recent_sessions":
		return strconv.Itoa(c.Session.MaxRecentSessions), nil
	case "session.restore_last_session":
		return strconv.FormatBool(c.Session.RestoreLastSession), nil
	case "session.retention_days":
		return strconv.Itoa(c.Session.RetentionDays), nil
	case "query.default_model":
		return c.Query.DefaultModel, nil
	case "query.default_system_prompt":
		return c.Query.DefaultSystemPrompt, nil
	case "query.default_rules_path":
		return c.Query.DefaultRulesPath, nil
	case "query.permission_mode":
		return c.Query.PermissionMode, nil
	case "query.max_turns":
		return strconv.Itoa(c.Query.MaxTurns), nil
	case "agent.base_url":
		return c.Agent.BaseURL, nil
	case "agent.timeout_secs":
		return strconv.Itoa(c.Agent.TimeoutSecs), nil
	case "agent.max_retries":
		return strconv.Itoa(c.Agent.MaxRetries), nil
	case "export.output_dir":
		return c.Export.OutputDir, nil
	case "export.theme":
		return c.Export.Theme, nil
	case "ui.theme":
		return c.UI.Theme, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Set writes a config value by dotted key, for the config CLI. The
// caller is responsible for saving afterwards.
func (c *Config) Set(key, value string) error {
	boolVal := func() (bool, error) { return strconv.ParseBool(value) }
	intVal := func() (int, error) { return strconv.Atoi(value) }

	switch key {
	case "session.storage_path":
		c.Session.StoragePath = value
	case "session.auto_save_enabled":
		v, err := boolVal()
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Session.AutoSaveEnabled = v
	case "session.auto_save_interval_secs":
		v, err := intVal()
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Session.AutoSaveIntervalSecs = v
	case "session.max_recent_sessions":
		v, err := intVal()
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Session.MaxRecentSessions = v
	case "session.restore_last_session":
		v, err := boolVal()
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Session.RestoreLastSession = v
	case "session.retention_days":
		v, err := intVal()
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Session.RetentionDays = v
	case "query.default_model":
		c.Query.DefaultModel = value
	case "query.default_system_prompt":
		c.Query.DefaultSystemPrompt = value
	case "query.default_rules_path":
		c.Query.DefaultRulesPath = value
	case "query.permission_mode":
		c.Query.PermissionMode = value
	case "query.max_turns":
		v, err := intVal()
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Query.MaxTurns = v
	case "agent.base_url":
		c.Agent.BaseURL = value
	case "agent.timeout_secs":
		v, err := intVal()
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Agent.TimeoutSecs = v
	case "agent.max_retries":
		v, err := intVal()
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Agent.MaxRetries = v
	case "export.output_dir":
		c.Export.OutputDir = value
	case "export.theme":
		c.Export.Theme = value
	case "ui.theme":
		c.UI.Theme = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return c.Validate()
}

// Keys lists the dotted keys usable with Get and Set.
func Keys() []string {
	return []string{
		"session.storage_path",
		"session.auto_save_enabled",
		"session.auto_save_interval_secs",
		"session.max_recent_sessions",
		"session.restore_last_session",
		"session.retention_days",
		"query.default_model",
		"query.default_system_prompt",
		"query.default_rules_path",
		"query.permission_mode",
		"query.max_turns",
		"agent.base_url",
		"agent.timeout_secs",
		"agent.max_retries",
		"export.output_dir",
		"export.theme",
		"ui.theme",
	}
}
