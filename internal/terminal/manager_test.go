package terminal

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/workbench/workbench/internal/common/config"
	"github.com/workbench/workbench/internal/events"
	"github.com/workbench/workbench/internal/events/bus"
)

func skipWithoutPTY(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("PTY is not supported on Windows")
	}
	if os.Getenv("CI") != "" {
		t.Skip("Skipping PTY test in CI environment")
	}
}

// TestOperationsOnMissingSession verifies not-found behavior without
// spawning anything.
func TestOperationsOnMissingSession(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.Write("nope", []byte("x")); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Write: expected ErrSessionNotFound, got %v", err)
	}
	if err := m.Resize("nope", 80, 24); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Resize: expected ErrSessionNotFound, got %v", err)
	}
	if err := m.SignalForeground("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("SignalForeground: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := m.ProjectPathForSession("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ProjectPathForSession: expected ErrSessionNotFound, got %v", err)
	}

	// Kill is idempotent: an absent session is success.
	if err := m.Kill("nope"); err != nil {
		t.Errorf("Kill on missing session: expected nil, got %v", err)
	}
}

func TestSpawnRequiresSessionID(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.Spawn(context.Background(), SpawnOptions{}); err == nil {
		t.Error("expected error for empty session id")
	}
}

// TestManagerTunablesFromConfig verifies configured pipeline tunables are
// applied and zero values fall back to the built-in defaults.
func TestManagerTunablesFromConfig(t *testing.T) {
	log := newTestLogger()
	memBus := bus.NewMemoryEventBus(log)
	t.Cleanup(memBus.Close)

	m := NewManager(config.TerminalConfig{
		DefaultCols:    80,
		DefaultRows:    24,
		ReadBufferSize: 8 * 1024,
		QuietWindowMs:  250,
		StartupDelayMs: 50,
	}, memBus, "", log)

	if m.readBufferSize != 8*1024 {
		t.Errorf("readBufferSize = %d, want %d", m.readBufferSize, 8*1024)
	}
	if m.quietWindow != 250*time.Millisecond {
		t.Errorf("quietWindow = %v, want 250ms", m.quietWindow)
	}
	if m.startupDelay != 50*time.Millisecond {
		t.Errorf("startupDelay = %v, want 50ms", m.startupDelay)
	}

	m = NewManager(config.TerminalConfig{DefaultCols: 80, DefaultRows: 24}, memBus, "", log)
	if m.readBufferSize != defaultReadBufferSize {
		t.Errorf("readBufferSize = %d, want default %d", m.readBufferSize, defaultReadBufferSize)
	}
	if m.quietWindow != defaultQuietWindow {
		t.Errorf("quietWindow = %v, want default %v", m.quietWindow, defaultQuietWindow)
	}
	if m.startupDelay != defaultStartupDelay {
		t.Errorf("startupDelay = %v, want default %v", m.startupDelay, defaultStartupDelay)
	}
}

// TestSpawnRejectsUnsafeSessionID verifies ids that cannot form a single
// bus subject token are rejected before any PTY is opened.
func TestSpawnRejectsUnsafeSessionID(t *testing.T) {
	m, _ := newTestManager(t)

	for _, id := range []string{"pane.1", "pane 1", "pane*", "pane>x", "pane\tx"} {
		err := m.Spawn(context.Background(), SpawnOptions{SessionID: id})
		if !errors.Is(err, ErrInvalidSessionID) {
			t.Errorf("Spawn(%q): expected ErrInvalidSessionID, got %v", id, err)
		}
	}
	if m.SessionCount() != 0 {
		t.Errorf("SessionCount = %d, want 0", m.SessionCount())
	}
}

// TestSpawnEchoAndExit spawns a real shell, verifies the echoed startup
// command arrives in the data stream, and that exactly one exit event
// follows a kill.
func TestSpawnEchoAndExit(t *testing.T) {
	skipWithoutPTY(t)

	m, memBus := newTestManager(t)

	var dataMu sync.Mutex
	var received strings.Builder
	dataSub, err := memBus.Subscribe(events.BuildTerminalDataSubject("echo-test"), func(ctx context.Context, e *bus.Event) error {
		dataMu.Lock()
		received.WriteString(e.Data["data"].(string))
		dataMu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer func() { _ = dataSub.Unsubscribe() }()

	var exitCount int32
	exitSub, err := memBus.Subscribe(events.BuildTerminalExitSubject("echo-test"), func(ctx context.Context, e *bus.Event) error {
		atomic.AddInt32(&exitCount, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer func() { _ = exitSub.Unsubscribe() }()

	err = m.Spawn(context.Background(), SpawnOptions{
		SessionID:      "echo-test",
		WorkingDir:     t.TempDir(),
		StartupCommand: "echo workbench-marker",
	})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	// Spawn returning means the session is registered.
	if m.SessionCount() != 1 {
		t.Errorf("expected 1 session, got %d", m.SessionCount())
	}

	deadline := time.After(5 * time.Second)
	for {
		dataMu.Lock()
		ok := strings.Contains(received.String(), "workbench-marker")
		dataMu.Unlock()
		if ok {
			break
		}
		select {
		case <-deadline:
			dataMu.Lock()
			t.Fatalf("startup command output not observed; got %q", received.String())
		case <-time.After(50 * time.Millisecond):
		}
	}

	if err := m.Kill("echo-test"); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}

	// Exactly one exit event, even with a second kill racing cleanup.
	if err := m.Kill("echo-test"); err != nil {
		t.Fatalf("second Kill failed: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if n := atomic.LoadInt32(&exitCount); n != 1 {
		t.Errorf("expected exactly 1 exit event, got %d", n)
	}
	if m.SessionCount() != 0 {
		t.Errorf("expected 0 sessions after kill, got %d", m.SessionCount())
	}
}

// TestNaturalExitEmitsOneExitEvent lets the shell exit on its own and
// verifies cleanup plus the single exit notification.
func TestNaturalExitEmitsOneExitEvent(t *testing.T) {
	skipWithoutPTY(t)

	m, memBus := newTestManager(t)

	exitCh := make(chan *bus.Event, 4)
	sub, err := memBus.Subscribe(events.BuildTerminalExitSubject("natural-exit"), func(ctx context.Context, e *bus.Event) error {
		exitCh <- e
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	err = m.Spawn(context.Background(), SpawnOptions{
		SessionID:      "natural-exit",
		WorkingDir:     t.TempDir(),
		StartupCommand: "exit 0",
	})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	select {
	case e := <-exitCh:
		if e.Data["session_id"] != "natural-exit" {
			t.Errorf("unexpected session id %v", e.Data["session_id"])
		}
		if e.Data["signal"] != nil {
			t.Errorf("expected nil signal, got %v", e.Data["signal"])
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for exit event")
	}

	// Registry is empty; a late kill is a no-op.
	if err := m.Kill("natural-exit"); err != nil {
		t.Errorf("Kill after natural exit: expected nil, got %v", err)
	}

	select {
	case <-exitCh:
		t.Error("received a second exit event")
	case <-time.After(300 * time.Millisecond):
	}
}

// TestWriteAndResizeAfterSpawn exercises the caller-facing primitives
// against a live session.
func TestWriteAndResizeAfterSpawn(t *testing.T) {
	skipWithoutPTY(t)

	m, _ := newTestManager(t)

	err := m.Spawn(context.Background(), SpawnOptions{
		SessionID:  "io-test",
		WorkingDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	defer func() { _ = m.Kill("io-test") }()

	if err := m.Write("io-test", []byte("echo hi\n")); err != nil {
		t.Errorf("Write failed: %v", err)
	}
	if err := m.Resize("io-test", 120, 40); err != nil {
		t.Errorf("Resize failed: %v", err)
	}
	if err := m.SignalForeground("io-test"); err != nil {
		t.Errorf("SignalForeground failed: %v", err)
	}
}

func TestSpawnDuplicateSessionID(t *testing.T) {
	skipWithoutPTY(t)

	m, _ := newTestManager(t)

	opts := SpawnOptions{SessionID: "dup", WorkingDir: t.TempDir()}
	if err := m.Spawn(context.Background(), opts); err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	defer func() { _ = m.Kill("dup") }()

	if err := m.Spawn(context.Background(), opts); err == nil {
		t.Error("expected error spawning duplicate session id")
	}
	if m.SessionCount() != 1 {
		t.Errorf("expected 1 session, got %d", m.SessionCount())
	}
}

func TestProjectPathForSession(t *testing.T) {
	skipWithoutPTY(t)

	m, _ := newTestManager(t)
	workDir := t.TempDir()

	err := m.Spawn(context.Background(), SpawnOptions{
		SessionID:  "path-test",
		WorkingDir: workDir,
	})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	defer func() { _ = m.Kill("path-test") }()

	path, err := m.ProjectPathForSession("path-test")
	if err != nil {
		t.Fatalf("ProjectPathForSession failed: %v", err)
	}
	// A plain temp dir is not a git repository, so the literal path
	// (possibly symlink-resolved by git) comes back.
	if path == "" {
		t.Error("expected non-empty project path")
	}
}

// TestConcurrentSessionsAreIsolated spawns two sessions and verifies
// data flows for both; neither blocks the other.
func TestConcurrentSessionsAreIsolated(t *testing.T) {
	skipWithoutPTY(t)

	m, memBus := newTestManager(t)

	gotA := make(chan struct{}, 1)
	gotB := make(chan struct{}, 1)
	subA, _ := memBus.Subscribe(events.BuildTerminalDataSubject("iso-a"), func(ctx context.Context, e *bus.Event) error {
		select {
		case gotA <- struct{}{}:
		default:
		}
		return nil
	})
	defer func() { _ = subA.Unsubscribe() }()
	subB, _ := memBus.Subscribe(events.BuildTerminalDataSubject("iso-b"), func(ctx context.Context, e *bus.Event) error {
		select {
		case gotB <- struct{}{}:
		default:
		}
		return nil
	})
	defer func() { _ = subB.Unsubscribe() }()

	for _, id := range []string{"iso-a", "iso-b"} {
		err := m.Spawn(context.Background(), SpawnOptions{
			SessionID:      id,
			WorkingDir:     t.TempDir(),
			StartupCommand: "echo ping",
		})
		if err != nil {
			t.Fatalf("Spawn %s failed: %v", id, err)
		}
	}
	defer m.Close()

	for name, ch := range map[string]chan struct{}{"iso-a": gotA, "iso-b": gotB} {
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			t.Fatalf("no data observed for session %s", name)
		}
	}
}

func TestManagerClose(t *testing.T) {
	skipWithoutPTY(t)

	m, _ := newTestManager(t)
	for _, id := range []string{"c1", "c2"} {
		err := m.Spawn(context.Background(), SpawnOptions{SessionID: id, WorkingDir: t.TempDir()})
		if err != nil {
			t.Fatalf("Spawn %s failed: %v", id, err)
		}
	}

	m.Close()

	if m.SessionCount() != 0 {
		t.Errorf("expected 0 sessions after Close, got %d", m.SessionCount())
	}
}
