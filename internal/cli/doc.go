// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the forgechat command-line interface.
//
// Commands cover one-shot queries (ask), the interactive REPL (chat),
// rule file management (rules), saved session management (session),
// task templates (task), and configuration (config). Parse turns
// os.Args into a Command plus Args; each command has a Handle function
// that returns an error mapped to a process exit code.
package cli
