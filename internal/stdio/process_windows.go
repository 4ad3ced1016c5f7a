//go:build windows

package stdio

import (
	"os/exec"
	"syscall"
)

func configureProcAttr(cmd *exec.Cmd) {
	if cmd.SysProcAttr != nil {
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// Windows has no SIGTERM; termination is always forceful.
func terminateProcess(cmd *exec.Cmd) error {
	return killProcess(cmd)
}

func killProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
