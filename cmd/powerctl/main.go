package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/mutker/powerctl/internal/config"
	"codeberg.org/mutker/powerctl/internal/logger"
)

// app is the state shared by every command once flags and config are
// loaded.
type app struct {
	cfg    *config.Config
	loader *config.Loader
	log    logger.Logger
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "powerctl",
		Short:         "Inspect and change device power settings through the power backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	config.RegisterFlags(root.PersistentFlags())
	root.PersistentFlags().String("config", "", "Config file (default /etc/powerctl.conf)")

	root.AddCommand(
		newWatchCmd(a),
		newShowCmd(a),
		newInfoCmd(a),
		newSetCmd(a),
		newHookCmd(a),
		newHistoryCmd(a),
	)

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	var opts []config.Option
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}

	loader, err := config.NewLoader(cmd.Flags(), opts...)
	if err != nil {
		return err
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	logger.InitWriter(os.Stderr, logger.IsService())
	logger.SetLogLevel(cfg.Level())

	a.cfg, a.loader = cfg, loader
	a.log = logger.New("powerctl")
	a.log.Debug().
		Str("config", loader.ConfigFile()).
		Str("backend", cfg.Backend).
		Msg("Config loaded")

	return nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
