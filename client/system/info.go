package system

import (
	"context"
	"runtime"
	"strings"
)

// OSType is the operating system family an update targets
type OSType int

const (
	OSOther OSType = iota
	OSWindows
	OSMacOS
	OSLinux
)

func (t OSType) String() string {
	switch t {
	case OSWindows:
		return "windows"
	case OSMacOS:
		return "macos"
	case OSLinux:
		return "linux"
	default:
		return "other"
	}
}

// ParseOSType maps the os field of a manifest entry to an OSType. Anything
// not recognised is OSOther and has to be matched by its raw name.
func ParseOSType(os string) OSType {
	switch strings.ToLower(strings.TrimSpace(os)) {
	case "windows", "win":
		return OSWindows
	case "macos", "mac", "osx", "darwin":
		return OSMacOS
	case "linux":
		return OSLinux
	default:
		return OSOther
	}
}

// Platform describes the running operating system as seen by the update selector
type Platform struct {
	Type OSType
	// OSName is the raw operating system name, e.g. "macOS", "Windows" or "FreeBSD"
	OSName    string
	OSVersion string
	Arch      string
}

// CurrentPlatform collects the platform information of the running host
func CurrentPlatform(ctx context.Context) Platform {
	name, ver := osNameVersion(ctx)
	return Platform{
		Type:      ParseOSType(runtime.GOOS),
		OSName:    name,
		OSVersion: ver,
		Arch:      runtime.GOARCH,
	}
}
