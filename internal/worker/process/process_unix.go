//go:build !windows

package process

import (
	"errors"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcAttributes places the worker in its own process group so a kill
// reaches any grandchildren the interpreter forks.
func setProcAttributes(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// applyMemoryLimit caps the worker's address space via prlimit.
func applyMemoryLimit(pid int, limit int64) error {
	rlim := &unix.Rlimit{Cur: uint64(limit), Max: uint64(limit)}
	err := unix.Prlimit(pid, unix.RLIMIT_AS, rlim, nil)
	if errors.Is(err, unix.ESRCH) {
		// The process already exited; nothing left to limit.
		return nil
	}
	return err
}

// killProcessGroup delivers SIGKILL to the worker's whole process group.
func killProcessGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
