package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/netbirdio/autoupdate/client/internal/updatemanager/installer"
)

var (
	resultWait time.Duration

	resultCmd = &cobra.Command{
		Use:   "result",
		Short: "prints the outcome of the last upgrade",
		RunE: func(cmd *cobra.Command, args []string) error {
			rh := installer.NewResultHandler(cfg.ResultDir)

			var (
				res installer.Result
				err error
			)
			if resultWait > 0 {
				ctx, cancel := context.WithTimeout(cmd.Context(), resultWait)
				defer cancel()
				res, err = rh.Watch(ctx)
			} else {
				res, err = rh.Read()
			}
			if err != nil {
				return err
			}

			if res.Success {
				cmd.Printf("upgrade to %s succeeded at %s\n", res.Version, res.ExecutedAt.Format(time.RFC3339))
				return nil
			}
			cmd.Printf("upgrade to %s failed at %s: %s\n", res.Version, res.ExecutedAt.Format(time.RFC3339), res.Error)
			return nil
		},
	}
)

func init() {
	resultCmd.Flags().DurationVar(&resultWait, "wait", 0, "waits up to this long for a result and consumes it")
}
