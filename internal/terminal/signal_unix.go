//go:build !windows

package terminal

import "syscall"

// interruptProcess delivers SIGINT directly to pid, equivalent to the
// terminal generating Ctrl-C but independent of the PTY's input mode.
func interruptProcess(pid int) error {
	return syscall.Kill(pid, syscall.SIGINT)
}
