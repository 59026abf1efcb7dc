package system

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

func osNameVersion(ctx context.Context) (string, string) {
	swVersion, err := exec.CommandContext(ctx, "sw_vers", "-productVersion").Output()
	if err == nil {
		return "macOS", strings.TrimSpace(string(swVersion))
	}

	log.Warnf("got an error while retrieving macOS version with sw_vers, error: %s. Using darwin version instead.", err)
	utsname := unix.Utsname{}
	if err := unix.Uname(&utsname); err != nil {
		log.Warnf("uname: %v", err)
		return "macOS", ""
	}
	return "macOS", string(bytes.Split(utsname.Release[:], []byte{0})[0])
}
