package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/config"
	"github.com/netbirdio/autoupdate/client/internal/updatemanager/downloader"
	"github.com/netbirdio/autoupdate/client/internal/updatemanager/manifest"
)

func packageConfig(t *testing.T) config.Config {
	cfg := config.Default("Launcher")
	cfg.CurrentVersion = "2.6.5"
	cfg.TempDir = t.TempDir()
	return cfg
}

func windowsCandidate() *manifest.Candidate {
	return &manifest.Candidate{OS: "windows", Version: "2.7.0", URL: "https://example.com/LauncherSetup.exe", Hash: "abc"}
}

func TestPackage_LaunchesSilentInstaller(t *testing.T) {
	cfg := packageConfig(t)
	runner := &fakeRunner{}
	dl := &fakeDownloader{content: []byte("MZ")}

	state, err := NewPackage(cfg, dl, runner).Execute(context.Background(), Request{
		Candidate: windowsCandidate(),
		Args:      []string{"--foo", "a b", `say "hi"`},
	})
	require.NoError(t, err)
	assert.Equal(t, StateDone, state)

	require.Len(t, runner.spawned, 1)
	spec := runner.spawned[0]
	assert.Equal(t, dl.dst, spec.Path)
	assert.Equal(t, ".exe", filepath.Ext(spec.Path))
	assert.Equal(t, []string{"/SILENT"}, spec.Args)
	assert.Equal(t, []string{
		"LAUNCHER_UPGRADE=1",
		`LAUNCHER_UPGRADE_PARAMS=--foo "a b" "say \"hi\""`,
	}, spec.Env)
	assert.FileExists(t, spec.Path, "the installer runs after the launcher exits")
}

func TestPackage_VerificationFailure(t *testing.T) {
	cfg := packageConfig(t)
	runner := &fakeRunner{}
	dl := &fakeDownloader{content: []byte("bad"), err: downloader.ErrVerification}

	state, err := NewPackage(cfg, dl, runner).Execute(context.Background(), Request{Candidate: windowsCandidate()})
	assert.ErrorIs(t, err, downloader.ErrVerification)
	assert.Equal(t, StateAborted, state)
	assert.NoFileExists(t, dl.dst)
	assert.Empty(t, runner.spawned)
}

func TestPackage_SpawnFailure(t *testing.T) {
	cfg := packageConfig(t)
	runner := &fakeRunner{spawnErr: errors.New("access denied")}
	dl := &fakeDownloader{content: []byte("MZ")}

	state, err := NewPackage(cfg, dl, runner).Execute(context.Background(), Request{Candidate: windowsCandidate()})
	assert.Error(t, err)
	assert.Equal(t, StateFatalFailed, state)
	assert.NoFileExists(t, dl.dst)
}

func TestForOS_Unsupported(t *testing.T) {
	cfg := packageConfig(t)
	state, err := ForOS("linux", cfg, &fakeDownloader{}, &fakeRunner{}).Execute(context.Background(), Request{Candidate: windowsCandidate()})
	assert.Error(t, err)
	assert.Equal(t, StateAborted, state)

	entries, err := os.ReadDir(cfg.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
