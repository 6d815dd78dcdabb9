// Package scheduler keeps the mirror in step with the backend on two
// cadences: a full reload of every setting and the limits, and a cheap
// periodic refresh of a few hot fields that escalates to a full reload
// when the active profile changed behind our back.
package scheduler

import "time"

type EventKind string

const (
	EventFullReload EventKind = "full_reload"
	EventRefresh    EventKind = "refresh"
)

// Event describes a completed reload or refresh. Hot readings are the
// values written to the mirror by that run.
type Event struct {
	Kind           EventKind
	At             time.Time
	Duration       time.Duration
	ProfileChanged bool
	Profile        string
	Persistent     bool
	CurrentNow     float64
	ChargeNow      float64
	ChargeFull     float64
}

// Listener is called after every completed run, in registration order.
type Listener func(Event)
