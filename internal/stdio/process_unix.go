//go:build !windows

package stdio

import (
	"fmt"
	"os/exec"
	"syscall"
)

// configureProcAttr puts the server in its own process group so that the
// whole tree can be signalled on stop.
func configureProcAttr(cmd *exec.Cmd) {
	if cmd.SysProcAttr != nil {
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

func terminateProcess(cmd *exec.Cmd) error {
	return signalProcessGroup(cmd, syscall.SIGTERM)
}

func killProcess(cmd *exec.Cmd) error {
	return signalProcessGroup(cmd, syscall.SIGKILL)
}

// signalProcessGroup signals the process group led by cmd, falling back to the
// process itself when the group is gone or was never created.
func signalProcessGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid
	if cmd.SysProcAttr != nil && cmd.SysProcAttr.Setpgid {
		if err := syscall.Kill(-pid, sig); err == nil {
			return nil
		}
	}
	if err := cmd.Process.Signal(sig); err != nil {
		return fmt.Errorf("signal %v to pid %d: %w", sig, pid, err)
	}
	return nil
}
