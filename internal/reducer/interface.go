// Package reducer turns UI actions into remote calls and mirror writes.
//
// A reducer reads current values from the mirror, calls the backend, and
// writes back what the backend returned, never what was requested. It
// returns its input snapshot when nothing visible changed and the next
// revision otherwise.
package reducer

import (
	"context"

	"codeberg.org/mutker/powerctl/internal/backend"
	"codeberg.org/mutker/powerctl/internal/logger"
	"codeberg.org/mutker/powerctl/internal/mirror"
)

type Domain string

const (
	DomainBattery Domain = "battery"
	DomainCPU     Domain = "cpu"
	DomainGPU     Domain = "gpu"
	DomainGeneral Domain = "general"
)

// Action is a discrete UI intent for one domain.
type Action interface {
	Domain() Domain
}

// Env carries what every reducer needs. Reload runs a full reload and is
// used by actions that switch the backend's active settings.
type Env struct {
	Store   *mirror.Store
	Gateway *backend.Gateway
	Log     logger.Logger
	Reload  func(ctx context.Context) error
}

// Func reduces a snapshot of type S.
type Func[S any] func(ctx context.Context, env *Env, s S, a Action) (S, error)
