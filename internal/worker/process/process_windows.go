//go:build windows

package process

import (
	"os"
	"os/exec"
)

func setProcAttributes(cmd *exec.Cmd) {}

// applyMemoryLimit is a no-op on Windows; deployments needing memory
// enforcement there use the docker backend.
func applyMemoryLimit(pid int, limit int64) error {
	return nil
}

func killProcessGroup(pid int) {
	if p, err := os.FindProcess(pid); err == nil {
		_ = p.Kill()
	}
}
