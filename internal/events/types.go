// Package events provides event types and utilities for the Workbench event system.
package events

import "strings"

// subjectToken rewrites an identifier so it occupies exactly one subject
// token. Session and pane ids are caller-supplied; a dot would split the
// subject, `*` and `>` are wildcards, and whitespace is invalid on NATS,
// so those characters are replaced with underscores. Identifiers carried
// in event payloads are untouched.
func subjectToken(id string) string {
	if id == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, id)
}

// Event types for terminal sessions
const (
	TerminalData     = "terminal.data"     // PTY output chunk
	TerminalExit     = "terminal.exit"     // Session process exited
	TerminalActivity = "terminal.activity" // Output activity transition
)

// Event types for agent hooks
const (
	HookClaude = "hook.claude" // Claude Code lifecycle hook
	HookCodex  = "hook.codex"  // Codex notify payload
)

// BuildTerminalDataSubject creates a terminal data subject for a specific session
func BuildTerminalDataSubject(sessionID string) string {
	return TerminalData + "." + subjectToken(sessionID)
}

// BuildTerminalDataWildcardSubject creates a wildcard subscription for all terminal data events
func BuildTerminalDataWildcardSubject() string {
	return TerminalData + ".*"
}

// BuildTerminalExitSubject creates a terminal exit subject for a specific session
func BuildTerminalExitSubject(sessionID string) string {
	return TerminalExit + "." + subjectToken(sessionID)
}

// BuildTerminalExitWildcardSubject creates a wildcard subscription for all terminal exit events
func BuildTerminalExitWildcardSubject() string {
	return TerminalExit + ".*"
}

// BuildTerminalActivitySubject creates a terminal activity subject for a specific session
func BuildTerminalActivitySubject(sessionID string) string {
	return TerminalActivity + "." + subjectToken(sessionID)
}

// BuildTerminalActivityWildcardSubject creates a wildcard subscription for all terminal activity events
func BuildTerminalActivityWildcardSubject() string {
	return TerminalActivity + ".*"
}

// BuildHookClaudeSubject creates a Claude hook subject for a specific pane
func BuildHookClaudeSubject(paneID string) string {
	return HookClaude + "." + subjectToken(paneID)
}

// BuildHookClaudeWildcardSubject creates a wildcard subscription for all Claude hook events
func BuildHookClaudeWildcardSubject() string {
	return HookClaude + ".*"
}

// BuildHookCodexSubject creates a Codex hook subject for a specific pane
func BuildHookCodexSubject(paneID string) string {
	return HookCodex + "." + subjectToken(paneID)
}

// BuildHookCodexWildcardSubject creates a wildcard subscription for all Codex hook events
func BuildHookCodexWildcardSubject() string {
	return HookCodex + ".*"
}
