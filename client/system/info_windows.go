package system

import (
	"context"
	"fmt"

	"golang.org/x/sys/windows"
)

func osNameVersion(_ context.Context) (string, string) {
	info := windows.RtlGetVersion()
	return "Windows", fmt.Sprintf("%d.%d.%d", info.MajorVersion, info.MinorVersion, info.BuildNumber)
}
