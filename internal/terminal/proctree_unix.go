//go:build !windows && !linux

package terminal

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// listChildPids enumerates the direct children of pid via pgrep, which is
// available on macOS and the BSDs. A non-zero pgrep exit with no output
// means no children, not an error.
func listChildPids(pid int) ([]int, error) {
	out, err := exec.Command("pgrep", "-P", strconv.Itoa(pid)).Output()
	if err != nil {
		if len(out) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("pgrep -P %d: %w", pid, err)
	}

	var pids []int
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		child, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		pids = append(pids, child)
	}
	return pids, nil
}
