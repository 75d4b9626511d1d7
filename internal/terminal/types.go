// Package terminal implements the PTY session manager: it spawns
// interactive shells attached to pseudo-terminals, streams their output
// through a bounded, coalescing pipeline onto the event bus, tracks
// per-session output activity, and tears sessions down exactly once.
package terminal

import (
	"errors"
	"time"
)

// ErrSessionNotFound is returned when an operation references a session
// id that is not (or no longer) registered.
var ErrSessionNotFound = errors.New("terminal session not found")

// ErrInvalidSessionID is returned by Spawn when the caller-supplied id
// contains characters that cannot appear in a bus subject token.
var ErrInvalidSessionID = errors.New("invalid terminal session id")

// validSessionID reports whether id can occupy a single token in a bus
// subject. Dots terminate tokens and `*`/`>` are wildcards, so an id
// containing them would change the subject structure; whitespace makes
// the subject invalid on NATS outright.
func validSessionID(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

const (
	// defaultReadBufferSize is the size of the reader goroutine's PTY
	// read buffer when the config leaves it unset.
	defaultReadBufferSize = 32 * 1024

	// dataChannelCapacity bounds the reader -> emitter channel. A full
	// channel blocks the reader, applying backpressure instead of
	// dropping output.
	dataChannelCapacity = 256

	// defaultStartupDelay is how long after spawn the startup command is
	// written to the PTY, giving the shell time to print its prompt.
	defaultStartupDelay = 300 * time.Millisecond

	// defaultQuietWindow is how long the activity monitor waits without
	// a data pulse before reporting the session inactive.
	defaultQuietWindow = time.Second

	// emitFastThreshold marks an emission as part of a burst: if the
	// previous emission happened within this window, the emitter yields
	// once to coalesce more chunks into the batch.
	emitFastThreshold = 8 * time.Millisecond

	// coalesceYield is how long the emitter sleeps mid-burst before
	// re-draining the channel.
	coalesceYield = 2 * time.Millisecond

	// pulseChannelCapacity buffers activity pulses; sends are
	// fire-and-forget, so a slow monitor never blocks the emitter.
	pulseChannelCapacity = 64
)

// SpawnOptions describes a session to create.
type SpawnOptions struct {
	// SessionID is the caller-supplied unique identifier for the session.
	SessionID string

	// WorkingDir is the directory the shell starts in.
	WorkingDir string

	// Shell overrides the detected default shell when non-empty.
	Shell string

	// Cols and Rows are the initial PTY dimensions. Zero values fall
	// back to the manager's configured defaults.
	Cols uint16
	Rows uint16

	// StartupCommand, when non-empty, is written to the PTY (with a
	// trailing newline) shortly after spawn. Best effort.
	StartupCommand string
}
