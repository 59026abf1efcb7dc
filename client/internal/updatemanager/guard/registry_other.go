//go:build !windows

package guard

import (
	"errors"
	"runtime"
)

type registryLocator struct{}

// NewRegistryLocator returns an InstallLocator that fails outside of windows
func NewRegistryLocator() InstallLocator {
	return registryLocator{}
}

func (registryLocator) InstallLocation(string) (string, error) {
	return "", errors.New("install registry is not available on " + runtime.GOOS)
}
