package reducer

import (
	"context"
	"slices"

	"codeberg.org/mutker/powerctl/internal/mirror"
	"codeberg.org/mutker/powerctl/internal/settings"
	"codeberg.org/mutker/powerctl/internal/state"
)

// General reduces profile-level actions.
func General(ctx context.Context, env *Env, s state.General, a Action) (state.General, error) {
	logAction(env, DomainGeneral, a)
	store, gw := env.Store, env.Gateway

	switch act := a.(type) {
	case GeneralRefresh:
		return s.Next(store), nil

	case SetPersistent:
		prev := mirror.Must(store, settings.GeneralPersistent)
		if prev == act.On {
			return s, nil
		}
		persistent, err := gw.SetPersistent(ctx, act.On)
		if err != nil {
			return s, err
		}
		mirror.Set(store, settings.GeneralPersistent, persistent)
		if persistent == prev {
			return s, nil
		}
		return s.Next(store), nil

	case LoadSystemDefaults:
		persistent, err := gw.SetPersistent(ctx, false)
		if err != nil {
			return s, err
		}
		mirror.Set(store, settings.GeneralPersistent, persistent)
		if _, err := gw.LoadSystemSettings(ctx); err != nil {
			return s, err
		}
		if env.Reload != nil {
			if err := env.Reload(ctx); err != nil {
				return s, err
			}
		}
		if _, err := gw.WaitForUnlocks(ctx); err != nil {
			return s, err
		}
		return s.Next(store), nil

	case ApplyNow:
		if _, err := gw.ApplyNow(ctx); err != nil {
			return s, err
		}
		return s, nil

	case DismissMessage:
		ok, err := gw.DismissMessage(ctx, act.ID)
		if err != nil {
			return s, err
		}
		if !ok {
			return s, nil
		}
		msgs := slices.DeleteFunc(slices.Clone(mirror.Must(store, settings.Messages)), func(m settings.Message) bool {
			return m.ID != nil && *m.ID == act.ID
		})
		mirror.Set(store, settings.Messages, msgs)
		return s.Next(store), nil

	default:
		return s, unhandled(DomainGeneral, a)
	}
}
