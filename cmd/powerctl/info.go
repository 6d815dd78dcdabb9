package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"codeberg.org/mutker/powerctl/internal/reducer"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the backend version, drivers and SMT state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.info(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) info(ctx context.Context, w io.Writer) error {
	eng, err := a.newEngine(nil, nil)
	if err != nil {
		return err
	}
	defer eng.Close()

	gw := eng.Gateway()

	version, err := gw.Info(ctx)
	if err != nil {
		return err
	}
	smt, err := gw.SMT(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "version\t%s\n", version)
	for _, d := range []reducer.Domain{reducer.DomainBattery, reducer.DomainCPU, reducer.DomainGPU} {
		provider, err := gw.Provider(ctx, string(d))
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s provider\t%s\n", d, provider)
	}
	fmt.Fprintf(tw, "smt\t%t\n", smt)

	return tw.Flush()
}
