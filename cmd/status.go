package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the schedule currently held by the charger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext()
		defer stop()
		svc, closer, err := newService()
		if err != nil {
			return err
		}
		defer closer()
		sched, err := svc.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sched)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
