package guard

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows/registry"
)

const installLocationValue = "InstallLocation"

type registryLocator struct{}

// NewRegistryLocator returns an InstallLocator reading the installer uninstall key
func NewRegistryLocator() InstallLocator {
	return registryLocator{}
}

// InstallLocation reads the install location of key, preferring the per user install
func (registryLocator) InstallLocation(key string) (string, error) {
	var lastErr error
	for _, root := range []registry.Key{registry.CURRENT_USER, registry.LOCAL_MACHINE} {
		location, err := readStringValue(root, key, installLocationValue)
		if err == nil {
			return location, nil
		}
		if !errors.Is(err, registry.ErrNotExist) {
			log.Debugf("read %s from registry: %v", installLocationValue, err)
		}
		lastErr = err
	}
	return "", fmt.Errorf("read %s of %s: %w", installLocationValue, key, lastErr)
}

func readStringValue(root registry.Key, path, name string) (string, error) {
	k, err := registry.OpenKey(root, path, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := k.Close(); err != nil {
			log.Debugf("close registry key: %v", err)
		}
	}()

	value, _, err := k.GetStringValue(name)
	if err != nil {
		return "", err
	}
	return value, nil
}
