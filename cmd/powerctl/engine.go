package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"codeberg.org/mutker/powerctl/internal/backend"
	"codeberg.org/mutker/powerctl/internal/engine"
	"codeberg.org/mutker/powerctl/internal/limits"
	"codeberg.org/mutker/powerctl/internal/telemetry"
)

// newEngine connects to the configured backend. reg and history may be nil.
func (a *app) newEngine(reg prometheus.Registerer, history telemetry.Collector) (*engine.Engine, error) {
	inv, err := backend.NewHTTPInvoker(a.cfg.Backend, nil)
	if err != nil {
		return nil, err
	}

	l, err := limits.LoadFile(a.cfg.LimitsFile)
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Options{
		Invoker:    inv,
		Limits:     l,
		Interval:   a.cfg.RefreshInterval(),
		Logger:     a.log.With("engine"),
		History:    history,
		Registerer: reg,
	})
}
