// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package rules implements the custom-rules configuration engine.
//
// Rules are user-authored directives that shape assistant behavior. They
// are stored as a small XML document, edited by hand or through the CLI,
// and rendered into a delimited block that is appended to the system
// prompt for each query.
//
// The package provides four operations over that document:
//
//   - Parse: XML document -> RuleSet, fail-fast with a classified error
//   - Serialize: RuleSet -> pretty-printed XML document
//   - RenderPrompt: RuleSet -> prompt text block (enabled rules only)
//   - Validate: cheap well-formedness check built on Parse
//
// Parse and Serialize form a round trip: serializing a parsed document
// and parsing it again yields an equal RuleSet.
package rules
