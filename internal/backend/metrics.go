package backend

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"codeberg.org/mutker/powerctl/internal/errors"
)

// Metrics holds the collectors for remote call instrumentation.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewMetrics registers the call collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "powerctl_remote_calls_total",
			Help: "Remote calls by name and outcome",
		}, []string{"call", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "powerctl_remote_call_duration_seconds",
			Help:    "Remote call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}, []string{"call"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "powerctl_remote_calls_in_flight",
			Help: "Remote calls currently awaiting a result",
		}),
	}
}

type instrumented struct {
	next    Invoker
	metrics *Metrics
}

// Instrument wraps inv so every call is counted and timed.
func Instrument(inv Invoker, m *Metrics) Invoker {
	if m == nil {
		return inv
	}

	return &instrumented{next: inv, metrics: m}
}

func (i *instrumented) Invoke(ctx context.Context, name string, args []any) ([]any, error) {
	i.metrics.inFlight.Inc()
	defer i.metrics.inFlight.Dec()

	start := time.Now()
	res, err := i.next.Invoke(ctx, name, args)
	i.metrics.duration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	i.metrics.calls.WithLabelValues(name, outcome(ctx, err)).Inc()

	return res, err
}

func outcome(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "ok"
	case ctx.Err() != nil:
		return "cancelled"
	case errors.HasCode(err, ErrRemoteStatus):
		return "status"
	case errors.HasCode(err, ErrDecode):
		return "decode"
	default:
		return "error"
	}
}
