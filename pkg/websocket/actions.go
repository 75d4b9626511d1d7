package websocket

// Action constants for WebSocket messages
const (
	// Health
	ActionHealthCheck = "health.check"

	// Terminal actions (client -> server)
	ActionTerminalCreate    = "terminal.create"
	ActionTerminalInput     = "terminal.input"
	ActionTerminalResize    = "terminal.resize"
	ActionTerminalKill      = "terminal.kill"
	ActionTerminalInterrupt = "terminal.interrupt"

	// Subscription actions
	ActionPaneSubscribe   = "pane.subscribe"
	ActionPaneUnsubscribe = "pane.unsubscribe"

	// Notification actions (server -> client)
	ActionTerminalData     = "terminal.data"
	ActionTerminalExit     = "terminal.exit"
	ActionTerminalActivity = "terminal.activity"
	ActionHookClaude       = "hook.claude"
	ActionHookCodex        = "hook.codex"
)

// Error codes
const (
	ErrorCodeBadRequest    = "BAD_REQUEST"
	ErrorCodeNotFound      = "NOT_FOUND"
	ErrorCodeInternalError = "INTERNAL_ERROR"
	ErrorCodeValidation    = "VALIDATION_ERROR"
	ErrorCodeUnknownAction = "UNKNOWN_ACTION"
)
