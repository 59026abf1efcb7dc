// Package config holds the immutable settings shared by every update component.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/netbirdio/autoupdate/util"
	"github.com/netbirdio/autoupdate/version"
)

const (
	// DefaultAttachTimeout bounds the disk image attach, the only tool call that can hang
	DefaultAttachTimeout = 5 * time.Second

	upgradeEnvSuffix       = "_UPGRADE"
	upgradeParamsEnvSuffix = "_UPGRADE_PARAMS"
)

// Config is passed by value into every component. Nothing reads process globals
// once it is built.
type Config struct {
	ProductName    string `json:"productName"`
	CurrentVersion string `json:"currentVersion"`

	// DarwinExecutable is the launcher binary inside <ApplicationsDir>/<ProductName>.app/Contents/MacOS
	DarwinExecutable string `json:"darwinExecutable"`
	// WindowsExecutable is the launcher binary inside the registry recorded install location
	WindowsExecutable string `json:"windowsExecutable"`
	ApplicationsDir   string `json:"applicationsDir"`
	// UninstallKey is the registry key of the installer, relative to HKCU/HKLM
	UninstallKey string `json:"uninstallKey"`

	StateFile     string `json:"stateFile"`
	InstallIDFile string `json:"installIdFile"`
	ResultDir     string `json:"resultDir"`
	TempDir       string `json:"tempDir"`

	AttachTimeout time.Duration `json:"-"`
}

// Default returns the configuration for the given product with platform default paths
func Default(product string) Config {
	dataDir := defaultDataDir(product)

	return Config{
		ProductName:       product,
		CurrentVersion:    version.AppVersion(),
		DarwinExecutable:  product,
		WindowsExecutable: product + ".exe",
		ApplicationsDir:   "/Applications",
		UninstallKey:      `Software\Microsoft\Windows\CurrentVersion\Uninstall\` + product + ` Launcher_is1`,
		StateFile:         filepath.Join(dataDir, "state.json"),
		InstallIDFile:     filepath.Join(dataDir, "install_id.txt"),
		ResultDir:         filepath.Join(dataDir, "upgrade"),
		TempDir:           os.TempDir(),
		AttachTimeout:     DefaultAttachTimeout,
	}
}

// Load overlays the JSON file at path on top of base. Fields missing from the file keep their base value.
func Load(path string, base Config) (Config, error) {
	cfg := base
	if _, err := util.ReadJson(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields every component relies on
func (c Config) Validate() error {
	var missing []string
	if c.ProductName == "" {
		missing = append(missing, "productName")
	}
	if c.CurrentVersion == "" {
		missing = append(missing, "currentVersion")
	}
	if c.StateFile == "" {
		missing = append(missing, "stateFile")
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid config, missing %s", strings.Join(missing, ", "))
	}
	if c.AttachTimeout <= 0 {
		return errors.New("invalid config, attach timeout must be positive")
	}
	return nil
}

// UpgradeEnv is the marker set on a process launched as part of an upgrade
func (c Config) UpgradeEnv() string {
	return strings.ToUpper(c.ProductName) + upgradeEnvSuffix
}

// UpgradeParamsEnv carries the escaped original arguments to the relaunched process
func (c Config) UpgradeParamsEnv() string {
	return strings.ToUpper(c.ProductName) + upgradeParamsEnvSuffix
}

// AppBundleName is the bundle directory name on the disk image and in ApplicationsDir
func (c Config) AppBundleName() string {
	return c.ProductName + ".app"
}

// MacInstallDir is the bundle the disk image executor replaces
func (c Config) MacInstallDir() string {
	return filepath.Join(c.ApplicationsDir, c.AppBundleName())
}

// LauncherExecutable returns the expected launcher file name for goos
func (c Config) LauncherExecutable(goos string) string {
	if goos == "windows" {
		return c.WindowsExecutable
	}
	return c.DarwinExecutable
}

func defaultDataDir(product string) string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(base, product)
	}
	return filepath.Join(base, strings.ToLower(product))
}
