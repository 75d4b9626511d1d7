package terminal

import (
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// Session is the unit of lifecycle: one spawned shell attached to one
// PTY. The mutex guards the PTY handle and the child process as a unit,
// so concurrent write/resize/kill calls serialize against each other but
// never against other sessions. The pipeline's read side does not take
// the lock; reads and writes are opposite directions on the same
// descriptor and do not contend.
type Session struct {
	id          string
	projectPath string
	startedAt   time.Time

	mu  sync.Mutex
	pty PtyHandle
	cmd *exec.Cmd
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// ProjectPath returns the resolved project root for the session.
func (s *Session) ProjectPath() string { return s.projectPath }

// Write sends input bytes to the shell. The write is flushed before
// returning.
func (s *Session) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pty == nil {
		return fmt.Errorf("session %s: pty closed", s.id)
	}
	if _, err := s.pty.Write(data); err != nil {
		return fmt.Errorf("session %s: write: %w", s.id, err)
	}
	return nil
}

// Resize applies new terminal dimensions to the PTY master.
func (s *Session) Resize(cols, rows uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pty == nil {
		return fmt.Errorf("session %s: pty closed", s.id)
	}
	if err := s.pty.Resize(cols, rows); err != nil {
		return fmt.Errorf("session %s: resize: %w", s.id, err)
	}
	return nil
}

// Pid returns the shell process id, or zero when unavailable.
func (s *Session) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}
