package main

import (
	"context"
	"encoding/json"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"codeberg.org/mutker/powerctl/internal/engine"
	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/reducer"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "show [battery|cpu|gpu|general]",
		Short:     "Reload every setting from the backend and print it",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"battery", "cpu", "gpu", "general"},
		RunE: func(cmd *cobra.Command, args []string) error {
			domain := ""
			if len(args) == 1 {
				domain = args[0]
			}
			return a.show(cmd.Context(), cmd.OutOrStdout(), domain)
		},
	}
}

func (a *app) show(ctx context.Context, w io.Writer, domain string) error {
	eng, err := a.newEngine(nil, nil)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.Reload(ctx); err != nil {
		return err
	}

	return printSnapshots(w, eng, domain)
}

// printSnapshots writes the current snapshot of domain, or of every domain
// when domain is empty, as indented JSON.
func printSnapshots(w io.Writer, eng *engine.Engine, domain string) error {
	out := map[string]any{}
	all := domain == ""

	if all || domain == string(reducer.DomainBattery) {
		out[string(reducer.DomainBattery)] = eng.Battery().Snapshot()
	}
	if all || domain == string(reducer.DomainCPU) {
		out[string(reducer.DomainCPU)] = eng.CPU().Snapshot()
	}
	if all || domain == string(reducer.DomainGPU) {
		out[string(reducer.DomainGPU)] = eng.GPU().Snapshot()
	}
	if all || domain == string(reducer.DomainGeneral) {
		out[string(reducer.DomainGeneral)] = eng.General().Snapshot()
	}
	if len(out) == 0 {
		return errors.New().WithData(errors.ErrInvalidArgument, "unknown domain "+strconv.Quote(domain))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if !all {
		return enc.Encode(out[domain])
	}

	return enc.Encode(out)
}
