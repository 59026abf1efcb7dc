package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager"
	"github.com/netbirdio/autoupdate/client/internal/updatemanager/config"
	"github.com/netbirdio/autoupdate/util"
	"github.com/netbirdio/autoupdate/version"
)

const (
	productFlag        = "product"
	configFlag         = "config"
	logLevelFlag       = "log-level"
	logFileFlag        = "log-file"
	stateFileFlag      = "state-file"
	currentVersionFlag = "current-version"
	manifestFlag       = "manifest"
)

var (
	// defaultProduct can be set at build time with -ldflags "-X github.com/netbirdio/autoupdate/client/cmd.defaultProduct=..."
	defaultProduct = "Launcher"

	productName      string
	configPath       string
	logLevel         string
	logFile          string
	stateFile        string
	currentVersion   string
	manifestLocation string

	// launchArgs are handed to the relaunched launcher after an upgrade
	launchArgs []string
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:          "autoupdate",
		Short:        "Self update for the launcher",
		Long:         "Checks the update manifest and replaces the installed launcher with a newer version.",
		SilenceUsage: true,
	}
)

// Execute executes the root command. A process started by an upgrade without arguments
// gets back the arguments of the launcher that started the upgrade.
func Execute() error {
	launchArgs = os.Args[1:]
	if len(launchArgs) == 0 {
		args, err := updatemanager.RelaunchArgs(config.Default(defaultProduct), nil)
		if err != nil {
			return err
		}
		if len(args) > 0 {
			launchArgs = args
			rootCmd.SetArgs(args)
		}
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentPreRunE = initRoot

	rootCmd.PersistentFlags().StringVar(&productName, productFlag, defaultProduct, "product name, used for the bundle, registry key and environment variables")
	rootCmd.PersistentFlags().StringVarP(&configPath, configFlag, "c", "", "JSON file overriding the default configuration")
	rootCmd.PersistentFlags().StringVarP(&logLevel, logLevelFlag, "l", "info", "sets the log level")
	rootCmd.PersistentFlags().StringVar(&logFile, logFileFlag, "console", "sets the log path. If console is specified the log will be output to stderr")
	rootCmd.PersistentFlags().StringVar(&stateFile, stateFileFlag, "", "file the update attempts are recorded in")
	rootCmd.PersistentFlags().StringVar(&currentVersion, currentVersionFlag, version.AppVersion(), "version of the installed launcher")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(versionCmd)
}

func envPrefix() string {
	return strings.ToUpper(defaultProduct) + "_"
}

func initRoot(cmd *cobra.Command, _ []string) error {
	util.SetFlagsFromEnvVars(rootCmd, envPrefix())
	if cmd != rootCmd {
		util.SetFlagsFromEnvVars(cmd, envPrefix())
	}

	if err := util.InitLog(logLevel, logFile); err != nil {
		return fmt.Errorf("failed initializing log %v", err)
	}

	base := config.Default(productName)
	base.CurrentVersion = currentVersion
	if stateFile != "" {
		base.StateFile = stateFile
	}

	if configPath == "" {
		if err := base.Validate(); err != nil {
			return err
		}
		cfg = base
		return nil
	}

	loaded, err := config.Load(configPath, base)
	if err != nil {
		return err
	}
	cfg = loaded
	log.Debugf("loaded configuration from %s", configPath)
	return nil
}

// SetupCloseHandler handles SIGTERM signal and exits with success
func SetupCloseHandler(ctx context.Context, cancel context.CancelFunc) {
	termCh := make(chan os.Signal, 1)
	signal.Notify(termCh, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		done := ctx.Done()
		select {
		case <-done:
		case <-termCh:
		}

		log.Info("shutdown signal received")
		cancel()
	}()
}
