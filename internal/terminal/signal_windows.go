//go:build windows

package terminal

import "errors"

// interruptProcess is unsupported on Windows; console control events
// cannot target an arbitrary process without attaching to its console.
func interruptProcess(pid int) error {
	return errors.New("interrupt delivery not supported on windows")
}
