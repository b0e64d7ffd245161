// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Query.PermissionMode != "acceptEdits" {
		t.Errorf("PermissionMode = %q", cfg.Query.PermissionMode)
	}
	if !cfg.Session.AutoSaveEnabled || cfg.Session.AutoSaveIntervalSecs != 300 {
		t.Errorf("session defaults = %+v", cfg.Session)
	}
	if len(cfg.Export.Formats) != 3 {
		t.Errorf("export formats = %v", cfg.Export.Formats)
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = "1"

[query]
default_model = "sonnet"
permission_mode = "default"
max_turns = 12

[session]
retention_days = 7

[agent]
base_url = "http://localhost:9000"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Query.DefaultModel != "sonnet" || cfg.Query.MaxTurns != 12 {
		t.Errorf("query = %+v", cfg.Query)
	}
	if cfg.Session.RetentionDays != 7 {
		t.Errorf("RetentionDays = %d", cfg.Session.RetentionDays)
	}
	if cfg.Agent.BaseURL != "http://localhost:9000" {
		t.Errorf("BaseURL = %q", cfg.Agent.BaseURL)
	}

	// Unset fields get defaults.
	if cfg.Session.AutoSaveIntervalSecs != 300 {
		t.Errorf("missing fields should fill from defaults: %+v", cfg.Session)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("UI.Theme = %q", cfg.UI.Theme)
	}
}

func TestLoadFromPathRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[query]
permission_mode = "yolo"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("invalid permission mode should fail validation")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Query.PermissionMode = "bad"
	cfg.Query.MaxTurns = -1
	cfg.Session.RetentionDays = -5
	cfg.Agent.BaseURL = "ftp://nope"
	cfg.Export.Formats = []string{"pdf"}
	cfg.UI.Theme = "sparkle"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	var errs ValidateErrors
	if !errors.As(err, &errs) {
		t.Fatalf("expected ValidateErrors, got %T", err)
	}
	if len(errs) != 6 {
		t.Errorf("expected 6 errors, got %d: %v", len(errs), errs)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("FORGECHAT_MODEL", "opus")
	t.Setenv("FORGECHAT_AGENT_URL", "http://example:1234")
	t.Setenv("FORGECHAT_MAX_TURNS", "5")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Query.DefaultModel != "opus" {
		t.Errorf("DefaultModel = %q", cfg.Query.DefaultModel)
	}
	if cfg.Agent.BaseURL != "http://example:1234" {
		t.Errorf("BaseURL = %q", cfg.Agent.BaseURL)
	}
	if cfg.Query.MaxTurns != 5 {
		t.Errorf("MaxTurns = %d", cfg.Query.MaxTurns)
	}
}

func TestEnvOverrideIgnoresBadInt(t *testing.T) {
	t.Setenv("FORGECHAT_MAX_TURNS", "lots")
	cfg := Default()
	cfg.ApplyEnvOverrides()
	if cfg.Query.MaxTurns != 0 {
		t.Errorf("bad int override should be ignored, got %d", cfg.Query.MaxTurns)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Query.DefaultModel = "sonnet"
	cfg.Session.RetentionDays = 14
	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %o, want 0600", info.Mode().Perm())
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# forgechat configuration file") {
		t.Error("saved config should carry the header comment")
	}

	got, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if got.Query.DefaultModel != "sonnet" || got.Session.RetentionDays != 14 {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("query.default_model", "haiku"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := cfg.Get("query.default_model"); got != "haiku" {
		t.Errorf("Get = %q", got)
	}

	if err := cfg.Set("session.retention_days", "60"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if cfg.Session.RetentionDays != 60 {
		t.Errorf("RetentionDays = %d", cfg.Session.RetentionDays)
	}

	if err := cfg.Set("session.retention_days", "soon"); err == nil {
		t.Error("non-integer value should fail")
	}
	if err := cfg.Set("unknown.key", "x"); err == nil {
		t.Error("unknown key should fail")
	}
	if _, err := cfg.Get("unknown.key"); err == nil {
		t.Error("unknown key should fail")
	}

	// Set validates the result.
	if err := cfg.Set("query.permission_mode", "yolo"); err == nil {
		t.Error("Set should reject values that fail validation")
	}
}

func TestKeysAllReadable(t *testing.T) {
	cfg := Default()
	for _, key := range Keys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q): %v", key, err)
		}
	}
}

func TestClone(t *testing.T) {
	cfg := Default()
	cfg.Query.DefaultTools = []string{"Read"}

	clone := cfg.Clone()
	clone.Query.DefaultTools[0] = "Write"
	clone.Export.Formats[0] = "changed"

	if cfg.Query.DefaultTools[0] != "Read" {
		t.Error("clone shares tools slice")
	}
	if cfg.Export.Formats[0] == "changed" {
		t.Error("clone shares formats slice")
	}
}
