package installer

import (
	"os/exec"
	"syscall"
)

// setDetachedProcAttr runs the child in a new session so it survives the exit of the launcher
func setDetachedProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
