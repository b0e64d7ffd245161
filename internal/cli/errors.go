// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes shared by all commands.
//
// Handlers ALWAYS return errors instead of printing and returning nil;
// main decides how to display them and which exit code to use.
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/forgechat/internal/agent"
	"github.com/jeranaias/forgechat/internal/store"
)

const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0
	// ExitGeneralError indicates a general error.
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments.
	ExitUsageError = 2
	// ExitConfigError indicates a configuration error.
	ExitConfigError = 3
	// ExitNetworkError indicates the backend is unreachable.
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found.
	ExitNotFoundError = 7
)

// CommandError represents a CLI command failure with context.
type CommandError struct {
	Command string // Command that failed (e.g. "rules", "session")
	Action  string // Action being performed (e.g. "validate", "export")
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError represents invalid arguments for a command.
type UsageError struct {
	Message string
	Usage   string // short usage hint, printed after the message
}

func (e *UsageError) Error() string {
	if e.Usage != "" {
		return e.Message + "\nUsage: " + e.Usage
	}
	return e.Message
}

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// ErrMissingArgument creates a usage error for a missing argument.
func ErrMissingArgument(message, usage string) error {
	return &UsageError{Message: message, Usage: usage}
}

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	if errors.Is(err, store.ErrSessionNotFound) {
		return ExitNotFoundError
	}

	if errors.Is(err, agent.ErrUnavailable) {
		return ExitNetworkError
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "config") {
		return ExitConfigError
	}

	return ExitGeneralError
}
