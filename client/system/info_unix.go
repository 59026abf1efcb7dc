//go:build linux || freebsd || netbsd || openbsd || dragonfly

package system

import (
	"bytes"
	"context"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

func osNameVersion(_ context.Context) (string, string) {
	utsname := unix.Utsname{}
	if err := unix.Uname(&utsname); err != nil {
		log.Warnf("uname: %v", err)
		return "", ""
	}
	sysName := string(bytes.Split(utsname.Sysname[:], []byte{0})[0])
	release := string(bytes.Split(utsname.Release[:], []byte{0})[0])
	return sysName, release
}
