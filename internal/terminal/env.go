package terminal

import (
	"os"
	"os/exec"
	"runtime"
)

// Environment variables injected into every spawned shell. PaneIDEnvVar
// carries the session identifier; HookSocketEnvVar carries the side-channel
// address child processes use to report events back out-of-band.
const (
	PaneIDEnvVar     = "WORKBENCH_PANE_ID"
	HookSocketEnvVar = "WORKBENCH_HOOK_SOCKET"
)

// detectShell returns the appropriate shell for the current OS.
func detectShell() (string, []string) {
	if runtime.GOOS == "windows" {
		// Prefer PowerShell if available
		if _, err := exec.LookPath("pwsh.exe"); err == nil {
			return "pwsh.exe", []string{"-NoLogo", "-NoExit"}
		}
		if _, err := exec.LookPath("powershell.exe"); err == nil {
			return "powershell.exe", []string{"-NoLogo", "-NoExit"}
		}
		return "cmd.exe", nil
	}

	// Unix-like systems (Linux, macOS)
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell, []string{"-l"} // Login shell
	}

	// Try common shells
	shells := []string{"/bin/zsh", "/bin/bash", "/bin/sh"}
	for _, sh := range shells {
		if _, err := os.Stat(sh); err == nil {
			return sh, []string{"-l"}
		}
	}

	return "/bin/sh", nil
}

// buildSessionEnv creates a curated environment for the shell process.
// Only identity, locale, and terminal-capability variables are copied
// from the host; everything else is deliberately withheld so sessions
// start from a predictable environment.
func buildSessionEnv(sessionID, hookSocket string) []string {
	var env []string

	if runtime.GOOS == "windows" {
		for _, key := range []string{"PATH", "USERPROFILE", "USERNAME", "APPDATA", "LOCALAPPDATA", "SystemRoot", "ComSpec"} {
			if v := os.Getenv(key); v != "" {
				env = append(env, key+"="+v)
			}
		}
	} else {
		for _, key := range []string{"PATH", "HOME", "USER"} {
			if v := os.Getenv(key); v != "" {
				env = append(env, key+"="+v)
			}
		}
		// Shells degrade multi-byte output without a UTF-8 locale.
		lang := os.Getenv("LANG")
		if lang == "" {
			lang = "en_US.UTF-8"
		}
		env = append(env, "LANG="+lang)
	}

	env = append(env, "TERM=xterm-256color")
	env = append(env, "COLORTERM=truecolor")

	env = append(env, PaneIDEnvVar+"="+sessionID)
	if hookSocket != "" {
		env = append(env, HookSocketEnvVar+"="+hookSocket)
	}

	return env
}
