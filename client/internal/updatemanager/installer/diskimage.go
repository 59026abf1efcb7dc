package installer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/config"
)

const (
	hdiutil = "hdiutil"

	stagingSuffix = ".upgrade"
)

// DiskImage replaces the application bundle with the one shipped on a disk image
type DiskImage struct {
	cfg    config.Config
	dl     Downloader
	runner Runner
}

// NewDiskImage creates the disk image executor
func NewDiskImage(cfg config.Config, dl Downloader, runner Runner) *DiskImage {
	return &DiskImage{cfg: cfg, dl: dl, runner: runner}
}

func (d *DiskImage) Execute(ctx context.Context, req Request) (State, error) {
	m := &machine{}

	image, err := downloadTo(ctx, m, d.cfg, d.dl, req.Candidate, ".dmg")
	if err != nil {
		return m.fail(err)
	}
	defer removeQuietly(image)

	log.Debugf("attaching disk image %s", image)
	res := d.runner.Run(ctx, d.cfg.AttachTimeout, hdiutil, "attach", "-nobrowse", "-plist", image)
	if res.Outcome != ToolSucceeded {
		return m.fail(fmt.Errorf("attach disk image, %s: %w", res.Outcome, res.Err))
	}

	mountPoint, err := ParseMountPoint(bytes.NewReader(res.Output))
	if err != nil {
		if dev, devErr := ParseDevEntry(bytes.NewReader(res.Output)); devErr == nil {
			d.detach(ctx, dev)
		}
		return m.fail(err)
	}
	defer d.detach(ctx, mountPoint)

	installDir := d.cfg.MacInstallDir()
	staging := installDir + stagingSuffix
	if err := d.stage(filepath.Join(mountPoint, d.cfg.AppBundleName()), staging); err != nil {
		return m.fail(err)
	}

	if err := m.to(StateSwapping); err != nil {
		removeQuietly(staging)
		return m.state, err
	}

	// point of no return
	log.Debugf("removing old install from %s", installDir)
	if err := os.RemoveAll(installDir); err != nil {
		return m.fail(fmt.Errorf("remove old install %s: %w", installDir, err))
	}
	if err := os.Rename(staging, installDir); err != nil {
		return m.fail(fmt.Errorf("move new install into %s: %w", installDir, err))
	}

	if err := m.to(StateRelaunching); err != nil {
		return m.state, err
	}

	executable := req.Executable
	if executable == "" {
		executable = filepath.Join(installDir, "Contents", "MacOS", d.cfg.DarwinExecutable)
	}

	log.Info("upgrade installed, launching")
	err = d.runner.Spawn(SpawnSpec{
		Path: executable,
		Args: req.Args,
		Env:  upgradeEnv(d.cfg, req.Args),
	})
	if err != nil {
		return m.fail(fmt.Errorf("relaunch %s: %w", executable, err))
	}

	if err := m.to(StateDone); err != nil {
		return m.state, err
	}
	return m.state, nil
}

// stage copies the new bundle next to the installation. Nothing installed is touched.
func (d *DiskImage) stage(bundle, staging string) error {
	info, err := os.Stat(bundle)
	if err != nil {
		return fmt.Errorf("find new install on disk image: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s on disk image is not a bundle", bundle)
	}

	if err := removePaths(staging); err != nil {
		return err
	}

	log.Debugf("copying new install from %s to %s", bundle, staging)
	if err := copyTree(bundle, staging); err != nil {
		removeQuietly(staging)
		return fmt.Errorf("copy new install: %w", err)
	}
	return nil
}

func (d *DiskImage) detach(ctx context.Context, mountPoint string) {
	log.Debugf("detaching %s", mountPoint)
	res := d.runner.Run(context.WithoutCancel(ctx), d.cfg.AttachTimeout, hdiutil, "detach", mountPoint)
	if res.Outcome != ToolSucceeded {
		log.Warnf("failed to detach %s, %s: %v", mountPoint, res.Outcome, res.Err)
	}
}
