package guard

import (
	"context"
	"fmt"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/config"
)

// Windows accepts the executable inside the install location recorded by the installer
type Windows struct {
	cfg     config.Config
	procs   ProcessTable
	locator InstallLocator
}

func (w *Windows) Verify(ctx context.Context) (string, error) {
	command, err := w.procs.CommandLine(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: get process command: %v", ErrNotInstalled, err)
	}
	if command == "" {
		return "", fmt.Errorf("%w: running process has no command", ErrNotInstalled)
	}

	location, err := w.locator.InstallLocation(w.cfg.UninstallKey)
	if err != nil {
		return "", fmt.Errorf("%w: query install location: %v", ErrNotInstalled, err)
	}
	if location == "" {
		return "", fmt.Errorf("%w: empty install location", ErrNotInstalled)
	}

	executable := windowsExecutable(command)
	if !strings.EqualFold(windowsBase(executable), w.cfg.WindowsExecutable) || !windowsIsUnder(executable, location) {
		return "", fmt.Errorf("%w: command is %s", ErrNotInstalled, command)
	}

	if err := checkSingleInstance(ctx, w.procs, w.cfg.WindowsExecutable); err != nil {
		return "", err
	}

	log.Debugf("running from installation at %s", location)
	return executable, nil
}

// windowsExecutable returns the program path of a command line. A quoted path ends at the
// closing quote, an unquoted one is taken whole since it may contain spaces.
func windowsExecutable(command string) string {
	command = strings.TrimSpace(command)
	if !strings.HasPrefix(command, `"`) {
		return command
	}
	command = command[1:]
	if i := strings.IndexByte(command, '"'); i >= 0 {
		return command[:i]
	}
	return command
}

// windows paths are handled as text so they resolve the same on every host
func windowsNormalize(p string) string {
	p = strings.ReplaceAll(strings.Trim(p, `"`), `\`, "/")
	return strings.ToLower(path.Clean(p))
}

func windowsBase(p string) string {
	return path.Base(strings.ReplaceAll(p, `\`, "/"))
}

func windowsIsUnder(p, dir string) bool {
	p = windowsNormalize(p)
	dir = strings.TrimSuffix(windowsNormalize(dir), "/")
	return p == dir || strings.HasPrefix(p, dir+"/")
}
