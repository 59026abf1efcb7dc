package installer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	nberrors "github.com/netbirdio/autoupdate/client/errors"
	"github.com/netbirdio/autoupdate/util"
)

// copyTree copies the directory src to dst, keeping file modes and symbolic links.
// dst must not exist.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.Mkdir(target, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case info.Mode().IsRegular():
			if err := util.CopyFileContents(path, target); err != nil {
				return fmt.Errorf("copy %s: %w", rel, err)
			}
			return os.Chmod(target, info.Mode().Perm())
		default:
			log.Debugf("skipping irregular file %s", path)
			return nil
		}
	})
}

// removePaths removes every path and reports all failures together
func removePaths(paths ...string) error {
	var merr *multierror.Error
	for _, p := range paths {
		if err := os.RemoveAll(p); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("remove %s: %w", p, err))
		}
	}
	return nberrors.FormatErrorOrNil(merr)
}

// removeQuietly removes paths and only logs failures
func removeQuietly(paths ...string) {
	if err := removePaths(paths...); err != nil {
		log.Warnf("failed to clean up: %v", err)
	}
}
