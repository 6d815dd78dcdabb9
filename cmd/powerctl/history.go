package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"codeberg.org/mutker/powerctl/internal/telemetry"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent reloads and refreshes recorded by watch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.TelemetryConfig()
			cfg.Enabled = true
			history, err := telemetry.NewService(cfg, a.log.With("history"))
			if err != nil {
				return err
			}
			defer history.Close()

			recs, err := history.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			return printHistory(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of records to print")

	return cmd
}

func printHistory(w io.Writer, recs []telemetry.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tKIND\tPROFILE\tCHANGED\tPERSISTENT\tCURRENT\tCHARGE\tDURATION")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\t%.3f\t%.1f/%.1f\t%s\n",
			r.Timestamp.Format(time.RFC3339), r.Kind, r.Profile, r.ProfileChanged, r.Persistent,
			r.Battery.CurrentNow, r.Battery.ChargeNow, r.Battery.ChargeFull, r.Duration)
	}

	return tw.Flush()
}
