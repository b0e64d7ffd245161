// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rules

import (
	"os"

	"github.com/jeranaias/forgechat/internal/util"
)

// DefaultTemplate is the scaffold document written by "rules init".
// It carries one sample rule per category and parses cleanly, so it
// doubles as living documentation of the format.
const DefaultTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rules>
    <rule type="behavior" priority="10">
        <name>Professional Tone</name>
        <content>Maintain a professional and helpful tone in all responses</content>
    </rule>
    <rule type="constraint" priority="5">
        <name>Code Quality</name>
        <content>Always follow best practices and write clean, maintainable code</content>
    </rule>
    <rule type="format">
        <name>Response Format</name>
        <content>Use markdown formatting for code blocks and emphasis</content>
    </rule>
    <rule type="instruction">
        <name>Testing</name>
        <content>Add or update tests alongside any code change</content>
    </rule>
</rules>`

// InitFile writes DefaultTemplate to path unless a file already
// exists there. It reports whether the file was written.
func InitFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := util.AtomicWriteFile(path, []byte(DefaultTemplate+"\n"), 0644); err != nil {
		return false, err
	}
	return true, nil
}
