//go:build windows

package terminal

import "errors"

// listChildPids is unsupported on Windows; the foreground signal
// dispatcher degrades to a no-op there.
func listChildPids(pid int) ([]int, error) {
	return nil, errors.New("child process enumeration not supported on windows")
}
