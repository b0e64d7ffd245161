// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves the forgechat configuration.
//
// Configuration lives in TOML at ~/.forgechat/config.toml, with
// built-in defaults and FORGECHAT_* environment overrides applied on
// top. The loaded Config is an explicit value passed to the
// components that need it; there is no package-level global, so tests
// and callers can hold independent configurations.
package config
