package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"codeberg.org/mutker/powerctl/internal/reducer"
)

func newSetCmd(a *app) *cobra.Command {
	var core int

	cmd := &cobra.Command{
		Use:   "set <domain> <action> [value]",
		Short: "Change a setting and print the resulting state",
		Long:  "Change a setting through the backend. Actions:\n\n" + usage(),
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := ""
			if len(args) == 3 {
				value = args[2]
			}
			act, err := parseAction(args[0], args[1], value, core)
			if err != nil {
				return err
			}
			return a.set(cmd.Context(), cmd.OutOrStdout(), act, core)
		},
	}
	cmd.Flags().IntVar(&core, "core", noCore, "Apply a CPU action to this core only")

	return cmd
}

func (a *app) set(ctx context.Context, w io.Writer, act reducer.Action, core int) error {
	eng, err := a.newEngine(nil, nil)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.Reload(ctx); err != nil {
		return err
	}

	if core != noCore && act.Domain() == reducer.DomainCPU {
		for _, pre := range []reducer.Action{reducer.SetAdvancedMode{On: true}, reducer.SelectCore{Core: core}} {
			if err := eng.Dispatch(ctx, pre); err != nil {
				return err
			}
		}
	}

	if err := eng.Dispatch(ctx, act); err != nil {
		return err
	}
	a.log.Debug().Str("domain", string(act.Domain())).Interface("action", act).Msg("Applied")

	return printSnapshots(w, eng, string(act.Domain()))
}
