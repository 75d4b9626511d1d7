//go:build linux

package terminal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// listChildPids enumerates the direct children of pid. The children file
// under /proc is the cheap path; kernels built without it fall back to a
// full /proc scan comparing parent pids.
func listChildPids(pid int) ([]int, error) {
	path := fmt.Sprintf("/proc/%d/task/%d/children", pid, pid)
	data, err := os.ReadFile(path)
	if err == nil {
		var pids []int
		for _, field := range strings.Fields(string(data)) {
			child, err := strconv.Atoi(field)
			if err != nil {
				continue
			}
			pids = append(pids, child)
		}
		return pids, nil
	}

	return scanProcForChildren(pid)
}

// scanProcForChildren walks /proc and collects processes whose stat line
// reports pid as their parent.
func scanProcForChildren(pid int) ([]int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("failed to read /proc: %w", err)
	}

	var pids []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		ppid, err := parentPidFromStat(candidate)
		if err != nil {
			continue // process may have exited mid-scan
		}
		if ppid == pid {
			pids = append(pids, candidate)
		}
	}
	return pids, nil
}

// parentPidFromStat reads the ppid field from /proc/<pid>/stat. The comm
// field is parenthesized and may itself contain spaces or parentheses, so
// parsing starts after the last closing parenthesis.
func parentPidFromStat(pid int) (int, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, err
	}
	stat := string(data)
	i := strings.LastIndexByte(stat, ')')
	if i < 0 {
		return 0, fmt.Errorf("malformed stat for pid %d", pid)
	}
	fields := strings.Fields(stat[i+1:])
	if len(fields) < 2 {
		return 0, fmt.Errorf("malformed stat for pid %d", pid)
	}
	return strconv.Atoi(fields[1])
}
