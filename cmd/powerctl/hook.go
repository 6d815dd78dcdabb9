package main

import (
	"strings"

	"github.com/spf13/cobra"

	"codeberg.org/mutker/powerctl/internal/scheduler"
)

func newHookCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "hook <name> [args...]",
		Short:     "Forward a lifecycle event to the backend",
		Long:      "Forward a lifecycle event to the backend. Hooks: " + strings.Join(scheduler.Hooks(), ", "),
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: scheduler.Hooks(),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.newEngine(nil, nil)
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.Hook(cmd.Context(), args[0], args[1:]...); err != nil {
				return err
			}
			a.log.Info().Str("hook", args[0]).Msg("Hook delivered")

			return nil
		},
	}
}
