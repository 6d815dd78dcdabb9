// Package engine owns the mirror, the four domain dispatchers and the
// refresh scheduler for one backend connection.
package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"codeberg.org/mutker/powerctl/internal/backend"
	"codeberg.org/mutker/powerctl/internal/limits"
	"codeberg.org/mutker/powerctl/internal/logger"
	"codeberg.org/mutker/powerctl/internal/telemetry"
)

type Options struct {
	// Invoker reaches the backend. Required.
	Invoker backend.Invoker
	// Limits seed the mirror until the first full reload. Zero value means
	// limits.Defaults().
	Limits limits.Limits
	// Interval between periodic refreshes. Zero means the scheduler default.
	Interval time.Duration
	Logger   logger.Logger
	// History records every reload and refresh. Nil disables it.
	History telemetry.Collector
	// Registerer receives remote call metrics. Nil disables them.
	Registerer prometheus.Registerer
}
