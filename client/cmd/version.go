package cmd

import (
	"github.com/spf13/cobra"

	"github.com/netbirdio/autoupdate/version"
)

var (
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "prints the updater version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.AppVersion())
		},
	}
)
