//go:build !linux

package proc

import (
	"os"
	"os/exec"
)

// SetProcessGroup is a no-op on platforms without process-group support.
func SetProcessGroup(cmd *exec.Cmd) {}

// KillGroup kills only the direct child on non-Linux platforms.
func KillGroup(pid int) {
	if pid <= 0 {
		return
	}
	if p, err := os.FindProcess(pid); err == nil {
		_ = p.Kill()
	}
}

// CPUTimeMs is unavailable without rusage accounting.
func CPUTimeMs(state *os.ProcessState) int64 {
	return 0
}

// MaxRSSKB is unavailable without rusage accounting.
func MaxRSSKB(state *os.ProcessState) int64 {
	return 0
}
