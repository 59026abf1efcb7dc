package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager"
	"github.com/netbirdio/autoupdate/client/internal/updatemanager/downloader"
	"github.com/netbirdio/autoupdate/client/internal/updatemanager/manifest"
)

var (
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "checks for an update and upgrades the launcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			SetupCloseHandler(ctx, cancel)

			mf, err := manifest.Open(ctx, downloader.New(cfg.ProductName), manifestLocation)
			if err != nil {
				return err
			}

			d := updatemanager.NewManager(cfg).Run(ctx, mf, launchArgs)
			printDecision(cmd, d)

			switch d.Reason {
			case updatemanager.ReasonFailed, updatemanager.ReasonLedgerFailed:
				return fmt.Errorf("%s: %w", d.Reason, d.Err)
			default:
				return nil
			}
		},
	}

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "reports whether an update would be attempted, without changing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := manifest.Open(cmd.Context(), downloader.New(cfg.ProductName), manifestLocation)
			if err != nil {
				return err
			}

			printDecision(cmd, updatemanager.NewManager(cfg).Check(cmd.Context(), mf))
			return nil
		},
	}
)

func init() {
	for _, c := range []*cobra.Command{runCmd, checkCmd} {
		c.PersistentFlags().StringVarP(&manifestLocation, manifestFlag, "m", "", "update manifest file or http(s) URL")
		_ = c.MarkPersistentFlagRequired(manifestFlag)
	}
}

func printDecision(cmd *cobra.Command, d updatemanager.Decision) {
	if d.Candidate == nil {
		cmd.Println(d.Reason)
		return
	}
	cmd.Printf("%s: %s\n", d.Candidate.Version, d.Reason)
}
