package terminal

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/workbench/workbench/internal/common/config"
	"github.com/workbench/workbench/internal/common/logger"
	"github.com/workbench/workbench/internal/events"
	"github.com/workbench/workbench/internal/events/bus"
)

const eventSource = "terminal-manager"

// Manager is the session registry. The outer mutex guards only the two
// maps and is held briefly for insert/lookup/remove, never across I/O;
// each Session carries its own lock for write/resize/kill serialization.
type Manager struct {
	logger     *logger.Logger
	bus        bus.EventBus
	cfg        config.TerminalConfig
	hookSocket string

	// Pipeline tunables, from config with built-in fallbacks.
	readBufferSize int
	quietWindow    time.Duration
	startupDelay   time.Duration

	mu           sync.Mutex
	sessions     map[string]*Session
	projectPaths map[string]string
}

// NewManager creates a session manager that publishes terminal events on
// the given bus. hookSocket, when non-empty, is injected into every
// session's environment as the side-channel address.
func NewManager(cfg config.TerminalConfig, eventBus bus.EventBus, hookSocket string, log *logger.Logger) *Manager {
	m := &Manager{
		logger:         log.WithFields(zap.String("component", "terminal")),
		bus:            eventBus,
		cfg:            cfg,
		hookSocket:     hookSocket,
		readBufferSize: cfg.ReadBufferSize,
		quietWindow:    cfg.QuietWindowDuration(),
		startupDelay:   cfg.StartupDelayDuration(),
		sessions:       make(map[string]*Session),
		projectPaths:   make(map[string]string),
	}
	if m.readBufferSize <= 0 {
		m.readBufferSize = defaultReadBufferSize
	}
	if m.quietWindow <= 0 {
		m.quietWindow = defaultQuietWindow
	}
	if m.startupDelay <= 0 {
		m.startupDelay = defaultStartupDelay
	}
	return m
}

// Spawn creates a session: opens a PTY, starts the shell, registers the
// session, and only then starts the pipeline goroutines, so a successful
// return guarantees subsequent calls find the session.
func (m *Manager) Spawn(ctx context.Context, opts SpawnOptions) error {
	if opts.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if !validSessionID(opts.SessionID) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, opts.SessionID)
	}

	m.mu.Lock()
	_, exists := m.sessions[opts.SessionID]
	m.mu.Unlock()
	if exists {
		return fmt.Errorf("session %q already exists", opts.SessionID)
	}

	shell, args := detectShell()
	if opts.Shell != "" {
		shell = opts.Shell
	}

	cols := opts.Cols
	if cols == 0 {
		cols = m.cfg.DefaultCols
	}
	rows := opts.Rows
	if rows == 0 {
		rows = m.cfg.DefaultRows
	}

	projectPath := opts.WorkingDir
	if projectPath != "" {
		projectPath = resolveProjectRoot(ctx, opts.WorkingDir, m.logger)
	}

	cmd := exec.Command(shell, args...)
	cmd.Dir = opts.WorkingDir
	cmd.Env = buildSessionEnv(opts.SessionID, m.hookSocket)

	handle, err := startPTYWithSize(cmd, cols, rows)
	if err != nil {
		return fmt.Errorf("failed to start PTY for session %s: %w", opts.SessionID, err)
	}

	s := &Session{
		id:          opts.SessionID,
		projectPath: projectPath,
		startedAt:   time.Now(),
		pty:         handle,
		cmd:         cmd,
	}

	m.mu.Lock()
	if _, exists := m.sessions[opts.SessionID]; exists {
		m.mu.Unlock()
		_ = handle.Close()
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		return fmt.Errorf("session %q already exists", opts.SessionID)
	}
	m.sessions[opts.SessionID] = s
	m.projectPaths[opts.SessionID] = projectPath
	m.mu.Unlock()

	m.logger.Info("session spawned",
		zap.String("session_id", opts.SessionID),
		zap.String("shell", shell),
		zap.String("project_path", projectPath),
		zap.Int("pid", s.Pid()))

	// Registration happens before any worker goroutine starts.
	dataCh := make(chan string, dataChannelCapacity)
	pulseCh := make(chan struct{}, pulseChannelCapacity)

	go m.readLoop(s, dataCh)
	go m.emitLoop(s, dataCh, pulseCh)
	go m.watchActivity(s.id, pulseCh)

	if opts.StartupCommand != "" {
		go func(startup string) {
			time.Sleep(m.startupDelay)
			if err := s.Write([]byte(startup + "\n")); err != nil {
				m.logger.Debug("startup command write failed",
					zap.String("session_id", s.id),
					zap.Error(err))
			}
		}(opts.StartupCommand)
	}

	return nil
}

// get clones the shared session handle under a short-held lock.
func (m *Manager) get(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// Write sends input to a session's PTY.
func (m *Manager) Write(sessionID string, data []byte) error {
	s, ok := m.get(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return s.Write(data)
}

// Resize applies new dimensions to a session's PTY.
func (m *Manager) Resize(sessionID string, cols, rows uint16) error {
	s, ok := m.get(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return s.Resize(cols, rows)
}

// Kill terminates a session. A session already cleaned up by natural
// exit is not an error: whichever path removes the session from the
// registry first performs the teardown, the other becomes a no-op.
func (m *Manager) Kill(sessionID string) error {
	m.finalize(sessionID)
	return nil
}

// SignalForeground delivers an interrupt to each direct child of the
// session's shell, bypassing the PTY input stream. Enumeration and
// delivery failures are non-fatal: a partially-signaled process tree is
// recoverable by the user re-issuing the interrupt.
func (m *Manager) SignalForeground(sessionID string) error {
	s, ok := m.get(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	pid := s.Pid()
	if pid == 0 {
		return nil
	}

	children, err := listChildPids(pid)
	if err != nil {
		m.logger.Debug("child process enumeration failed",
			zap.String("session_id", sessionID),
			zap.Int("pid", pid),
			zap.Error(err))
		return nil
	}

	for _, child := range children {
		if err := interruptProcess(child); err != nil {
			m.logger.Debug("interrupt delivery failed",
				zap.String("session_id", sessionID),
				zap.Int("child_pid", child),
				zap.Error(err))
		}
	}

	return nil
}

// ProjectPathForSession returns the resolved project root recorded at
// spawn time.
func (m *Manager) ProjectPathForSession(sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path, ok := m.projectPaths[sessionID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return path, nil
}

// SessionCount returns the number of live sessions.
func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close kills every live session. Used on shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.finalize(id)
	}
}

// finalize removes the session from both registry maps and, if this
// caller won the removal race, tears the session down and emits the
// single exit notification.
func (m *Manager) finalize(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
		delete(m.projectPaths, sessionID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	m.teardown(s)
}

// teardown closes the PTY, asks the child to terminate, waits for the
// exit status, and emits the exit event. Runs at most once per session.
func (m *Manager) teardown(s *Session) {
	s.mu.Lock()
	handle := s.pty
	cmd := s.cmd
	s.mu.Unlock()

	if handle != nil {
		_ = handle.Close()
	}
	if cmd != nil && cmd.Process != nil {
		_ = terminateProcess(cmd.Process)
	}

	// Exit codes collapse to a binary success flag: 0 for clean exit,
	// 1 for anything else, signal reporting reserved.
	exitCode := 0
	if cmd != nil && cmd.Process != nil {
		if code, _, _ := waitPtyProcess(cmd); code != 0 {
			exitCode = 1
		}
	}

	m.logger.Info("session exited",
		zap.String("session_id", s.id),
		zap.Int("exit_code", exitCode))

	m.publishExit(s.id, exitCode)
}

func (m *Manager) publishData(sessionID, data string) {
	evt := bus.NewEvent(events.TerminalData, eventSource, map[string]interface{}{
		"session_id": sessionID,
		"data":       data,
	})
	if err := m.bus.Publish(context.Background(), events.BuildTerminalDataSubject(sessionID), evt); err != nil {
		m.logger.Debug("data event publish failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}

func (m *Manager) publishExit(sessionID string, exitCode int) {
	evt := bus.NewEvent(events.TerminalExit, eventSource, map[string]interface{}{
		"session_id": sessionID,
		"exit_code":  exitCode,
		"signal":     nil,
	})
	if err := m.bus.Publish(context.Background(), events.BuildTerminalExitSubject(sessionID), evt); err != nil {
		m.logger.Debug("exit event publish failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}

func (m *Manager) publishActivity(sessionID string, active bool) {
	evt := bus.NewEvent(events.TerminalActivity, eventSource, map[string]interface{}{
		"session_id": sessionID,
		"active":     active,
	})
	if err := m.bus.Publish(context.Background(), events.BuildTerminalActivitySubject(sessionID), evt); err != nil {
		m.logger.Debug("activity event publish failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}
