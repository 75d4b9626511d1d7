// Package hookbridge runs the out-of-band side channel that agent CLIs
// inside terminal sessions use to report lifecycle events. Sessions
// receive the socket address via WORKBENCH_HOOK_SOCKET and write one
// JSON envelope per line; the bridge republishes each envelope on the
// event bus.
package hookbridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/workbench/workbench/internal/common/config"
	"github.com/workbench/workbench/internal/common/logger"
	"github.com/workbench/workbench/internal/common/stringutil"
	"github.com/workbench/workbench/internal/events"
	"github.com/workbench/workbench/internal/events/bus"
)

const eventSource = "hook-bridge"

// envelope is the union of the two line formats agents write to the
// socket. Exactly one of Hook or Codex is set; the other is nil.
type envelope struct {
	PaneID string          `json:"pane_id"`
	Hook   json.RawMessage `json:"hook,omitempty"`
	Codex  json.RawMessage `json:"codex,omitempty"`
}

// Bridge owns the Unix socket listener. A Bridge with an empty socket
// path is inert: Start did not run or the platform has no socket
// support, and sessions are spawned without the hook environment.
type Bridge struct {
	logger *logger.Logger
	bus    bus.EventBus

	mu         sync.Mutex
	socketPath string
	listener   net.Listener
	closed     bool
}

// New creates a bridge publishing hook events on the given bus. Call
// Start to bind the socket.
func New(eventBus bus.EventBus, log *logger.Logger) *Bridge {
	return &Bridge{
		logger: log.WithFields(zap.String("component", "hookbridge")),
		bus:    eventBus,
	}
}

// SocketPath returns the bound socket address, or "" when the bridge
// is not listening.
func (b *Bridge) SocketPath() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.socketPath
}

// defaultSocketPath places the socket in the user's workbench config
// directory, creating it if needed.
func defaultSocketPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".workbench")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return filepath.Join(dir, "claude-hooks.sock"), nil
}

// Start binds the socket and begins accepting connections. On platforms
// without Unix socket support it is a no-op and SocketPath stays empty.
func (b *Bridge) Start(cfg config.HookBridgeConfig) error {
	if !cfg.Enabled {
		return nil
	}
	return b.start(cfg)
}

// Close shuts the listener down. Connections already accepted finish
// draining their current line and exit on the next read error.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.listener == nil {
		return nil
	}
	err := b.listener.Close()
	b.listener = nil
	b.socketPath = ""
	return err
}

// serve accepts connections until the listener closes.
func (b *Bridge) serve(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			b.mu.Lock()
			closed := b.closed
			b.mu.Unlock()
			if !closed {
				b.logger.Debug("socket accept failed", zap.Error(err))
			}
			return
		}
		go b.handleConn(conn)
	}
}

// handleConn reads JSON lines until the client disconnects. Malformed
// lines are logged and skipped; the connection stays open.
func (b *Bridge) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		b.dispatchLine(line)
	}
	if err := scanner.Err(); err != nil {
		b.logger.Debug("failed to read socket payload", zap.Error(err))
	}
}

func (b *Bridge) dispatchLine(line []byte) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		b.logger.Debug("invalid hook payload",
			zap.String("line", stringutil.TruncateStringWithEllipsis(string(line), 200)),
			zap.Error(err))
		return
	}
	if env.PaneID == "" || (env.Hook == nil && env.Codex == nil) {
		b.logger.Debug("hook payload missing pane_id or body")
		return
	}

	if env.Hook != nil {
		b.publishClaude(env.PaneID, env.Hook)
		return
	}
	b.publishCodex(env.PaneID, env.Codex)
}

// rawString pulls a string field out of an undecoded JSON payload,
// returning "" when the field is absent or not a string.
func rawString(payload map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := payload[key].(string); ok {
			return v
		}
	}
	return ""
}

func (b *Bridge) publishClaude(paneID string, raw json.RawMessage) {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		b.logger.Debug("invalid claude hook payload",
			zap.String("pane_id", paneID),
			zap.Error(err))
		return
	}

	data := map[string]interface{}{
		"pane_id":      paneID,
		"hook_payload": payload,
	}
	if v := rawString(payload, "session_id"); v != "" {
		data["session_id"] = v
	}
	if v := rawString(payload, "hook_event_name"); v != "" {
		data["hook_event_name"] = v
	}
	if v := rawString(payload, "source"); v != "" {
		data["source"] = v
	}
	if v := rawString(payload, "cwd"); v != "" {
		data["cwd"] = v
	}
	if v := rawString(payload, "transcript_path"); v != "" {
		data["transcript_path"] = v
	}

	evt := bus.NewEvent(events.HookClaude, eventSource, data)
	if err := b.bus.Publish(context.Background(), events.BuildHookClaudeSubject(paneID), evt); err != nil {
		b.logger.Debug("claude hook publish failed",
			zap.String("pane_id", paneID),
			zap.Error(err))
	}
}

func (b *Bridge) publishCodex(paneID string, raw json.RawMessage) {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		b.logger.Debug("invalid codex notify payload",
			zap.String("pane_id", paneID),
			zap.Error(err))
		return
	}

	data := map[string]interface{}{
		"pane_id":       paneID,
		"codex_payload": payload,
	}
	// Codex emits the thread id under either spelling depending on version.
	if v := rawString(payload, "thread-id", "thread_id"); v != "" {
		data["session_id"] = v
	}
	if v := rawString(payload, "event"); v != "" {
		data["notify_event"] = v
	}
	if v := rawString(payload, "cwd"); v != "" {
		data["cwd"] = v
	}

	evt := bus.NewEvent(events.HookCodex, eventSource, data)
	if err := b.bus.Publish(context.Background(), events.BuildHookCodexSubject(paneID), evt); err != nil {
		b.logger.Debug("codex notify publish failed",
			zap.String("pane_id", paneID),
			zap.Error(err))
	}
}
