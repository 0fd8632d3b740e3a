//go:build linux

// Package proc provides process-group and accounting helpers for spawned
// toolchain and submission processes.
package proc

import (
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// SetProcessGroup places the child in its own process group so the whole
// tree can be killed with one signal.
func SetProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// KillGroup sends a non-ignorable SIGKILL to the child's process group.
func KillGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = unix.Kill(-pid, unix.SIGKILL)
}

// CPUTimeMs returns user+system CPU time consumed by the exited child.
func CPUTimeMs(state *os.ProcessState) int64 {
	if state == nil {
		return 0
	}
	usage, ok := state.SysUsage().(*syscall.Rusage)
	if !ok {
		return 0
	}
	utime := time.Duration(usage.Utime.Sec)*time.Second + time.Duration(usage.Utime.Usec)*time.Microsecond
	stime := time.Duration(usage.Stime.Sec)*time.Second + time.Duration(usage.Stime.Usec)*time.Microsecond
	return (utime + stime).Milliseconds()
}

// MaxRSSKB returns the peak resident set size reported by the kernel for the
// exited child, in kilobytes.
func MaxRSSKB(state *os.ProcessState) int64 {
	if state == nil {
		return 0
	}
	if usage, ok := state.SysUsage().(*syscall.Rusage); ok {
		return usage.Maxrss
	}
	return 0
}
