package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/ledger"
)

const (
	noUpdatesFlag     = "noupdates"
	resetAttemptsFlag = "reset-attempts"
)

var (
	noUpdates     bool
	resetAttempts bool

	settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "shows or changes the update settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			l := ledger.New(cfg.StateFile)
			if err := l.Load(); err != nil {
				cmd.PrintErrf("ignoring unreadable state: %v\n", err)
			}

			if resetAttempts {
				if err := l.Reset(cmd.Context()); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed(noUpdatesFlag) {
				if err := l.SetNoUpdates(cmd.Context(), noUpdates); err != nil {
					return err
				}
			}

			r := l.Record()
			cmd.Printf("noupdates: %t\n", r.NoUpdates)
			cmd.Printf("attempts: %d\n", r.AttemptNum)
			if r.LastHash != "" {
				cmd.Printf("last attempted: %s at %s\n", r.LastHash, timeOfAttempt(r))
			}
			return nil
		},
	}
)

func init() {
	settingsCmd.Flags().BoolVar(&noUpdates, noUpdatesFlag, false, "disables automatic updates")
	settingsCmd.Flags().BoolVar(&resetAttempts, resetAttemptsFlag, false, "forgets previous update attempts and their backoff")
}

func timeOfAttempt(r ledger.Record) string {
	return time.UnixMilli(r.LastAttemptTime).Format(time.RFC3339)
}
