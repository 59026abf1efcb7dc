package installer

import (
	"context"
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/config"
)

// silentFlag runs the installer unattended
const silentFlag = "/SILENT"

// Package hands the installation over to the downloaded installer, which relaunches the launcher
type Package struct {
	cfg    config.Config
	dl     Downloader
	runner Runner
}

// NewPackage creates the installer package executor
func NewPackage(cfg config.Config, dl Downloader, runner Runner) *Package {
	return &Package{cfg: cfg, dl: dl, runner: runner}
}

func (p *Package) Execute(ctx context.Context, req Request) (State, error) {
	m := &machine{}

	installer, err := downloadTo(ctx, m, p.cfg, p.dl, req.Candidate, ".exe")
	if err != nil {
		return m.fail(err)
	}

	if err := m.to(StateSwapping); err != nil {
		removeQuietly(installer)
		return m.state, err
	}

	log.Infof("launching installer version %s", req.Candidate.Version)
	err = p.runner.Spawn(SpawnSpec{
		Path: installer,
		Args: []string{silentFlag},
		Env:  upgradeEnv(p.cfg, req.Args),
		Dir:  filepath.Dir(installer),
	})
	if err != nil {
		removeQuietly(installer)
		return m.fail(fmt.Errorf("launch installer: %w", err))
	}

	// the installer restarts the launcher once it is done
	if err := m.to(StateRelaunching); err != nil {
		return m.state, err
	}
	if err := m.to(StateDone); err != nil {
		return m.state, err
	}
	return m.state, nil
}
