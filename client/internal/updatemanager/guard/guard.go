// Package guard checks that the running launcher is the copy managed by the installer.
// Development and portable runs must never replace themselves.
package guard

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/config"
)

// ErrNotInstalled is returned when the running process is not the installed launcher
var ErrNotInstalled = errors.New("not running from an installation")

// ProcessTable answers the process queries the guard depends on
type ProcessTable interface {
	// CommandLine returns the executable path the current process was started with
	CommandLine(ctx context.Context) (string, error)
	// CountByName returns the number of running processes with the executable name
	CountByName(ctx context.Context, name string) (int, error)
}

// InstallLocator looks up where the platform installer put the launcher
type InstallLocator interface {
	InstallLocation(key string) (string, error)
}

// Guard resolves the installed executable path of the running process
type Guard interface {
	Verify(ctx context.Context) (string, error)
}

// New returns the guard for the running operating system
func New(cfg config.Config) Guard {
	return ForOS(runtime.GOOS, cfg, NewProcessTable(), NewRegistryLocator())
}

// ForOS returns the guard for goos using the given collaborators
func ForOS(goos string, cfg config.Config, procs ProcessTable, locator InstallLocator) Guard {
	switch goos {
	case "darwin":
		return &Darwin{cfg: cfg, procs: procs}
	case "windows":
		return &Windows{cfg: cfg, procs: procs, locator: locator}
	default:
		return unsupported{goos: goos}
	}
}

type unsupported struct {
	goos string
}

func (u unsupported) Verify(context.Context) (string, error) {
	return "", fmt.Errorf("%w: self update is not supported on %s", ErrNotInstalled, u.goos)
}

// checkSingleInstance fails when more than one launcher process is running
func checkSingleInstance(ctx context.Context, procs ProcessTable, name string) error {
	count, err := procs.CountByName(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: list processes: %v", ErrNotInstalled, err)
	}
	if count > 1 {
		return fmt.Errorf("%w: %d instances of %s are running", ErrNotInstalled, count, name)
	}
	log.Debugf("found %d running instance(s) of %s", count, name)
	return nil
}
