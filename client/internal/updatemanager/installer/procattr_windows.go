package installer

import (
	"os/exec"
	"syscall"
)

// setDetachedProcAttr starts the child without a console and outside the launcher's process group
func setDetachedProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | 0x00000008, // 0x00000008 is DETACHED_PROCESS
	}
}
