package terminal

import (
	"runtime"
	"strings"
	"testing"
)

func TestDetectShell(t *testing.T) {
	shell, args := detectShell()
	if shell == "" {
		t.Fatal("detectShell returned empty shell")
	}
	if runtime.GOOS == "windows" {
		if !strings.HasSuffix(shell, ".exe") {
			t.Errorf("expected .exe shell on windows, got %q", shell)
		}
		return
	}
	// On Unix the detected shell must be an absolute path and args
	// request a login shell when a shell was found.
	if !strings.HasPrefix(shell, "/") {
		t.Errorf("expected absolute shell path, got %q", shell)
	}
	if len(args) > 0 && args[0] != "-l" {
		t.Errorf("expected login-shell flag, got %v", args)
	}
}

func TestDetectShellHonorsSHELL(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("SHELL is not consulted on Windows")
	}
	t.Setenv("SHELL", "/opt/custom/fish")

	shell, args := detectShell()
	if shell != "/opt/custom/fish" {
		t.Errorf("expected SHELL override, got %q", shell)
	}
	if len(args) != 1 || args[0] != "-l" {
		t.Errorf("expected [-l], got %v", args)
	}
}

func envValue(env []string, key string) (string, bool) {
	prefix := key + "="
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			return strings.TrimPrefix(kv, prefix), true
		}
	}
	return "", false
}

func TestBuildSessionEnv(t *testing.T) {
	env := buildSessionEnv("pane-42", "/tmp/hook.sock")

	if v, ok := envValue(env, "TERM"); !ok || v != "xterm-256color" {
		t.Errorf("TERM = %q, ok=%v", v, ok)
	}
	if v, ok := envValue(env, "COLORTERM"); !ok || v != "truecolor" {
		t.Errorf("COLORTERM = %q, ok=%v", v, ok)
	}
	if v, ok := envValue(env, PaneIDEnvVar); !ok || v != "pane-42" {
		t.Errorf("%s = %q, ok=%v", PaneIDEnvVar, v, ok)
	}
	if v, ok := envValue(env, HookSocketEnvVar); !ok || v != "/tmp/hook.sock" {
		t.Errorf("%s = %q, ok=%v", HookSocketEnvVar, v, ok)
	}
}

func TestBuildSessionEnvWithoutHookSocket(t *testing.T) {
	env := buildSessionEnv("pane-7", "")
	if _, ok := envValue(env, HookSocketEnvVar); ok {
		t.Errorf("%s should be absent when no socket is configured", HookSocketEnvVar)
	}
	if v, ok := envValue(env, PaneIDEnvVar); !ok || v != "pane-7" {
		t.Errorf("%s = %q, ok=%v", PaneIDEnvVar, v, ok)
	}
}

func TestBuildSessionEnvLangFallback(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("LANG is not part of the Windows session env")
	}

	t.Setenv("LANG", "")
	env := buildSessionEnv("pane-1", "")
	if v, ok := envValue(env, "LANG"); !ok || v != "en_US.UTF-8" {
		t.Errorf("LANG = %q, ok=%v, want en_US.UTF-8 fallback", v, ok)
	}

	t.Setenv("LANG", "C.UTF-8")
	env = buildSessionEnv("pane-1", "")
	if v, ok := envValue(env, "LANG"); !ok || v != "C.UTF-8" {
		t.Errorf("LANG = %q, ok=%v, want host value preserved", v, ok)
	}
}

func TestBuildSessionEnvIsCurated(t *testing.T) {
	t.Setenv("WORKBENCH_TEST_LEAK", "should-not-appear")

	env := buildSessionEnv("pane-1", "")
	if _, ok := envValue(env, "WORKBENCH_TEST_LEAK"); ok {
		t.Error("host environment variable leaked into session env")
	}
}
