package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargewindow/core/history"
)

var (
	historyLimit   int
	historyFailed  bool
	historyApplied bool
	historySince   string
	historyJSON    bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored planning runs",
	Args:  cobra.NoArgs,
	RunE:  listHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "show at most this many runs, newest last")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "only failed runs")
	historyCmd.Flags().BoolVar(&historyApplied, "applied", false, "only runs that programmed the charger")
	historyCmd.Flags().StringVar(&historySince, "since", "", "only runs at or after this RFC3339 time")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print records as JSON")
	rootCmd.AddCommand(historyCmd)
}

func listHistory(cmd *cobra.Command, _ []string) error {
	q := history.Query{Limit: historyLimit, FailedOnly: historyFailed, AppliedOnly: historyApplied}
	if historySince != "" {
		t, err := time.Parse(time.RFC3339, historySince)
		if err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
		q.Start = t
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()
	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTARGET\tSCHEDULE\tMINUTES\tAVG\tAPPLIED\tCHANGED\tERROR")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.3f\t%t\t%t\t%s\n",
			r.Timestamp.Format(time.DateTime), r.TargetDate, r.Schedule, r.Minutes, r.AveragePrice, r.Applied, r.Changed, r.Error)
	}
	return tw.Flush()
}
