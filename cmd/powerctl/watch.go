package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"codeberg.org/mutker/powerctl/internal/config"
	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/logger"
	"codeberg.org/mutker/powerctl/internal/pid"
	"codeberg.org/mutker/powerctl/internal/scheduler"
	"codeberg.org/mutker/powerctl/internal/state"
	"codeberg.org/mutker/powerctl/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the settings mirror in sync and log every change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.watch(cmd.Context())
		},
	}
}

func (a *app) watch(ctx context.Context) error {
	errFactory := errors.New()

	pidFile := pid.New("")
	if err := pidFile.Write(); err != nil {
		return err
	}
	defer func() {
		if err := pidFile.Remove(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to remove PID file")
		}
	}()

	history, err := telemetry.NewService(a.cfg.TelemetryConfig(), a.log.With("history"))
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	defer func() {
		if err := history.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close refresh history")
		}
	}()

	var reg *prometheus.Registry
	if a.cfg.MetricsListen != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	eng, err := a.newEngine(registerer(reg), history)
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	defer eng.Close()

	logSnapshots(eng.General().Subscribe, func(l *logger.LogEvent, g state.General) {
		l.Str("profile", g.Name).Bool("persistent", g.Persistent).Msg("General settings changed")
	}, a.log)
	logSnapshots(eng.Battery().Subscribe, func(l *logger.LogEvent, b state.Battery) {
		l.Float64("current_now", b.CurrentNow).Float64("charge_now", b.ChargeNow).Msg("Battery readings changed")
	}, a.log)
	logSnapshots(eng.CPU().Subscribe, func(l *logger.LogEvent, c state.CPU) {
		l.Int("online", c.Online).Bool("smt", c.SMT).Msg("CPU settings changed")
	}, a.log)
	logSnapshots(eng.GPU().Subscribe, func(l *logger.LogEvent, g state.GPU) {
		l.Bool("slow_memory", g.SlowMemory).Msg("GPU settings changed")
	}, a.log)
	eng.Scheduler().OnEvent(func(ev scheduler.Event) {
		if ev.ProfileChanged {
			a.log.Info().Str("profile", ev.Profile).Msg("Active profile changed")
		}
	})

	if reg != nil {
		srv := &http.Server{
			Addr:              a.cfg.MetricsListen,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: shutdownTimeout,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		a.log.Info().Str("listen", a.cfg.MetricsListen).Msg("Serving metrics")
	}

	if err := a.loader.Watch(ctx, func(cfg *config.Config) {
		logger.SetLogLevel(cfg.Level())
		if cfg.Backend != a.cfg.Backend || cfg.Interval != a.cfg.Interval {
			a.log.Warn().Msg("Backend and interval changes apply after restart")
		}
	}); err != nil {
		a.log.Debug().Err(err).Msg("Config watch disabled")
	}

	if err := eng.Start(ctx); err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	a.log.Info().Str("backend", a.cfg.Backend).Msg("Watching backend settings")

	<-ctx.Done()
	a.log.Info().Msg("Exiting...")

	return nil
}

// registerer avoids handing the engine a typed nil.
func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}

	return reg
}

func logSnapshots[S any](subscribe func(func(S)) func(), msg func(*logger.LogEvent, S), log logger.Logger) {
	subscribe(func(s S) { msg(log.Debug(), s) })
}
