package reducer

import (
	"fmt"

	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/logger"
)

func unhandled(domain Domain, a Action) error {
	errFactory := errors.New()
	return errFactory.WithData(ErrUnhandledAction, fmt.Sprintf("%s reducer cannot handle %T", domain, a))
}

func (e *Env) log() logger.Logger {
	if e.Log == nil {
		return logger.Nop()
	}

	return e.Log
}

func logAction(env *Env, domain Domain, a Action) {
	env.log().Debug().
		Str("domain", string(domain)).
		Str("action", fmt.Sprintf("%T", a)).
		Interface("payload", a).
		Msg("Reducing action")
}

// is reports whether p holds v.
func is[T comparable](p *T, v T) bool {
	return p != nil && *p == v
}

func ptr[T any](v T) *T {
	return &v
}
