// Package installer downloads a launcher update and replaces the running installation.
package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/config"
	"github.com/netbirdio/autoupdate/client/internal/updatemanager/downloader"
	"github.com/netbirdio/autoupdate/client/internal/updatemanager/manifest"
)

// Downloader fetches and verifies an update into dst
type Downloader interface {
	Download(ctx context.Context, url, expectedHash string, progress downloader.ProgressFunc, dst downloader.File) error
}

// Request is one upgrade to perform
type Request struct {
	Candidate *manifest.Candidate
	// Executable is the installed launcher path the guard resolved
	Executable string
	// Args are the arguments of the running launcher, handed to the relaunched one
	Args []string
}

// Executor performs an upgrade. It returns the terminal state reached and, unless
// the state is StateDone, the cause.
type Executor interface {
	Execute(ctx context.Context, req Request) (State, error)
}

// New returns the executor for the running operating system
func New(cfg config.Config, dl Downloader) Executor {
	return ForOS(runtime.GOOS, cfg, dl, NewRunner())
}

// ForOS returns the executor for goos
func ForOS(goos string, cfg config.Config, dl Downloader, runner Runner) Executor {
	switch goos {
	case "darwin":
		return NewDiskImage(cfg, dl, runner)
	case "windows":
		return NewPackage(cfg, dl, runner)
	default:
		return unsupported{goos: goos}
	}
}

type unsupported struct {
	goos string
}

func (u unsupported) Execute(context.Context, Request) (State, error) {
	m := &machine{}
	return m.fail(fmt.Errorf("self update is not supported on %s", u.goos))
}

// downloadTo moves m through Downloading to Verified and returns the verified temp file.
// Any failure removes the file and aborts.
func downloadTo(ctx context.Context, m *machine, cfg config.Config, dl Downloader, c *manifest.Candidate, ext string) (string, error) {
	if err := m.to(StateDownloading); err != nil {
		return "", err
	}

	log.Infof("downloading launcher %s from %s", c.Version, c.URL)

	pattern := strings.ToLower(cfg.ProductName) + "-upgrade-*" + ext
	f, err := os.CreateTemp(cfg.TempDir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()

	err = dl.Download(ctx, c.URL, c.Hash, progressLogger(c), f)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("close %s: %w", path, closeErr)
	}
	if err != nil {
		removeQuietly(path)
		if errors.Is(err, downloader.ErrVerification) {
			log.Errorf("unable to verify update %s: %v", c.Version, err)
		}
		return "", fmt.Errorf("download update %s: %w", c.Version, err)
	}

	if err := m.to(StateVerified); err != nil {
		removeQuietly(path)
		return "", err
	}
	return path, nil
}

// progressLogger logs the download progress in steps of ten percent of the announced size
func progressLogger(c *manifest.Candidate) downloader.ProgressFunc {
	if c.Size <= 0 {
		return nil
	}

	name := c.Name
	if name == "" {
		name = c.Version
	}

	lastStep := int64(-1)
	return func(completed int64) {
		step := completed * 10 / c.Size
		if step == lastStep {
			return
		}
		lastStep = step
		log.Debugf("downloading %s: %d%%", name, min(step*10, 100))
	}
}

// upgradeEnv marks the child as launched by an upgrade and hands it the encoded arguments
func upgradeEnv(cfg config.Config, args []string) []string {
	return []string{
		cfg.UpgradeEnv() + "=1",
		cfg.UpgradeParamsEnv() + "=" + EncodeArgs(args),
	}
}
