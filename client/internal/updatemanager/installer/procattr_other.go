//go:build !unix && !windows

package installer

import "os/exec"

func setDetachedProcAttr(*exec.Cmd) {}
