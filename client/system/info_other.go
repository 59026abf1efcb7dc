//go:build !darwin && !windows && !linux && !freebsd && !netbsd && !openbsd && !dragonfly

package system

import (
	"context"
	"runtime"
)

func osNameVersion(_ context.Context) (string, string) {
	return runtime.GOOS, ""
}
