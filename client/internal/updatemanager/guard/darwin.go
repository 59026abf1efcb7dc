package guard

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/config"
)

// packager shim directory that holds a link to the real executable
const resourcesShim = "/Contents/Resources/"

// Darwin accepts the executable inside the application bundle under the applications directory
type Darwin struct {
	cfg   config.Config
	procs ProcessTable
}

func (d *Darwin) Verify(ctx context.Context) (string, error) {
	command, err := d.procs.CommandLine(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: get process command: %v", ErrNotInstalled, err)
	}
	if command == "" {
		return "", fmt.Errorf("%w: running process has no command", ErrNotInstalled)
	}

	path, err := filepath.Abs(command)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %v", ErrNotInstalled, command, err)
	}
	path = resolveResourcesShim(path)

	if filepath.Base(path) != d.cfg.DarwinExecutable || !isUnder(path, d.cfg.MacInstallDir()) {
		return "", fmt.Errorf("%w: command is %s", ErrNotInstalled, command)
	}

	if err := checkSingleInstance(ctx, d.procs, d.cfg.DarwinExecutable); err != nil {
		return "", err
	}

	log.Debugf("running from installation at %s", path)
	return path, nil
}

// resolveResourcesShim maps .../X.app/Contents/Resources/<exe> to .../X.app/Contents/MacOS/<exe>
func resolveResourcesShim(path string) string {
	if !strings.Contains(path, resourcesShim) {
		return path
	}
	return filepath.Join(filepath.Dir(filepath.Dir(path)), "MacOS", filepath.Base(path))
}

// isUnder reports whether path is dir or inside it, comparing whole path elements
func isUnder(path, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
