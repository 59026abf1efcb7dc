package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/installer"
	"github.com/netbirdio/autoupdate/client/internal/updatemanager/ledger"
)

func TestInitCommands(t *testing.T) {
	helpFlag := "-h"
	commandArgs := [][]string{{"root", helpFlag}}
	for _, command := range rootCmd.Commands() {
		commandArgs = append(commandArgs, []string{command.Name(), command.Name(), helpFlag})
	}

	for _, args := range commandArgs {
		t.Run(fmt.Sprintf("Testing Command %s", args[0]), func(t *testing.T) {
			defer func() {
				err := recover()
				if err != nil {
					t.Fatalf("got an panic error while running the command: %s -h. Error: %s", args[0], err)
				}
			}()

			rootCmd.SetArgs(args[1:])
			rootCmd.SetOut(io.Discard)
			if err := rootCmd.Execute(); err != nil {
				t.Errorf("expected no error while running %s command, got %v", args[0], err)
				return
			}
		})
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	configFile := filepath.Join(dir, "config.json")
	content := fmt.Sprintf(`{"resultDir": %q, "installIdFile": %q, "tempDir": %q}`,
		filepath.Join(dir, "upgrade"), filepath.Join(dir, "install_id.txt"), dir)
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o600))

	return configFile, filepath.Join(dir, "state.json")
}

func TestSettingsCommand(t *testing.T) {
	configFile, state := writeConfig(t)

	out, err := execute(t, "settings", "--config", configFile, "--state-file", state, "--noupdates")
	require.NoError(t, err)
	assert.Contains(t, out, "noupdates: true")

	l := ledger.New(state)
	require.NoError(t, l.Load())
	assert.True(t, l.Record().NoUpdates)

	_, err = l.MarkAttempt(context.Background(), "abc", time.Now())
	require.NoError(t, err)

	out, err = execute(t, "settings", "--config", configFile, "--state-file", state, "--reset-attempts")
	require.NoError(t, err)
	assert.Contains(t, out, "attempts: 0")
	assert.Contains(t, out, "noupdates: true", "reset keeps the opt out")
}

func TestCheckCommand_NotInstalled(t *testing.T) {
	configFile, state := writeConfig(t)

	manifestFile := filepath.Join(t.TempDir(), "bootstrap.json")
	require.NoError(t, os.WriteFile(manifestFile, []byte(`{"updates":[]}`), 0o600))

	out, err := execute(t, "check", "--config", configFile, "--state-file", state, "--manifest", manifestFile)
	require.NoError(t, err)
	assert.Contains(t, out, "not running from an installation")
	assert.NoFileExists(t, state)
}

func TestCheckCommand_MissingManifest(t *testing.T) {
	configFile, state := writeConfig(t)

	_, err := execute(t, "check", "--config", configFile, "--state-file", state, "--manifest", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestResultCommand(t *testing.T) {
	configFile, state := writeConfig(t)

	_, err := execute(t, "result", "--config", configFile, "--state-file", state, "--wait", "0s")
	assert.Error(t, err, "no result written yet")

	rh := installer.NewResultHandler(filepath.Join(filepath.Dir(configFile), "upgrade"))
	require.NoError(t, rh.Write(context.Background(), installer.Result{Success: true, Version: "2.7.0", ExecutedAt: time.Now()}))

	out, err := execute(t, "result", "--config", configFile, "--state-file", state, "--wait", "5s")
	require.NoError(t, err)
	assert.Contains(t, out, "upgrade to 2.7.0 succeeded")
	assert.NoFileExists(t, rh.Path(), "waiting consumes the result")
}

func TestExecute_RestoresUpgradeArgs(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"autoupdate"}

	t.Setenv("LAUNCHER_UPGRADE_PARAMS", `version --log-level "debug"`)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer rootCmd.SetArgs(nil)

	require.NoError(t, Execute())
	assert.Equal(t, []string{"version", "--log-level", "debug"}, launchArgs)
	assert.NotEmpty(t, out.String())
}
