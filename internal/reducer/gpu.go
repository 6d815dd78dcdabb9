package reducer

import (
	"context"

	"codeberg.org/mutker/powerctl/internal/mirror"
	"codeberg.org/mutker/powerctl/internal/settings"
	"codeberg.org/mutker/powerctl/internal/state"
)

// GPU reduces GPU actions.
func GPU(ctx context.Context, env *Env, s state.GPU, a Action) (state.GPU, error) {
	logAction(env, DomainGPU, a)
	store, gw := env.Store, env.Gateway

	switch act := a.(type) {
	case SetSlowMemory:
		prev := mirror.Must(store, settings.GPUSlowMemory)
		if prev == act.On {
			return s, nil
		}
		slow, err := gw.SetGPUSlowMemory(ctx, act.On)
		if err != nil {
			return s, err
		}
		mirror.Set(store, settings.GPUSlowMemory, slow)
		if slow == prev {
			return s, nil
		}
		return s.Next(store), nil

	case SetGPUMinClock:
		minNow := mirror.Must(store, settings.GPUMinClock)
		maxNow := mirror.Must(store, settings.GPUMaxClock)
		if is(minNow, act.MHz) || maxNow == nil {
			return s, nil
		}
		return setGPUClocks(ctx, env, s, act.MHz, *maxNow)

	case SetGPUMaxClock:
		minNow := mirror.Must(store, settings.GPUMinClock)
		maxNow := mirror.Must(store, settings.GPUMaxClock)
		if is(maxNow, act.MHz) || minNow == nil {
			return s, nil
		}
		return setGPUClocks(ctx, env, s, *minNow, act.MHz)

	case ToggleGPUClocks:
		if act.On {
			l := mirror.Must(store, settings.LimitsAll).GPU
			if l.ClockMinLimits != nil {
				mirror.Set(store, settings.GPUMinClock, ptr(l.ClockMinLimits.Min))
			}
			if l.ClockMaxLimits != nil {
				mirror.Set(store, settings.GPUMaxClock, ptr(l.ClockMaxLimits.Max))
			}
			return s.Next(store), nil
		}
		if err := gw.UnsetGPUClockLimits(ctx); err != nil {
			return s, err
		}
		mirror.Set[*int](store, settings.GPUMinClock, nil)
		mirror.Set[*int](store, settings.GPUMaxClock, nil)
		return s.Next(store), nil

	case SetFastPPT:
		fastNow := mirror.Must(store, settings.GPUFastPPT)
		slowNow := mirror.Must(store, settings.GPUSlowPPT)
		if is(fastNow, act.MilliWatts) || slowNow == nil {
			return s, nil
		}
		return setPPT(ctx, env, s, act.MilliWatts, *slowNow)

	case SetSlowPPT:
		fastNow := mirror.Must(store, settings.GPUFastPPT)
		slowNow := mirror.Must(store, settings.GPUSlowPPT)
		if is(slowNow, act.MilliWatts) || fastNow == nil {
			return s, nil
		}
		return setPPT(ctx, env, s, *fastNow, act.MilliWatts)

	case TogglePPT:
		if act.On {
			l := mirror.Must(store, settings.LimitsAll).GPU
			if l.FastPPTLimits != nil {
				mirror.Set(store, settings.GPUFastPPT, ptr(l.FastPPTLimits.Max))
			}
			if l.SlowPPTLimits != nil {
				mirror.Set(store, settings.GPUSlowPPT, ptr(l.SlowPPTLimits.Max))
			}
			return s.Next(store), nil
		}
		if err := gw.UnsetGPUPPT(ctx); err != nil {
			return s, err
		}
		mirror.Set[*int](store, settings.GPUFastPPT, nil)
		mirror.Set[*int](store, settings.GPUSlowPPT, nil)
		return s.Next(store), nil

	default:
		return s, unhandled(DomainGPU, a)
	}
}

func setGPUClocks(ctx context.Context, env *Env, s state.GPU, lo, hi int) (state.GPU, error) {
	store := env.Store
	prevLo := mirror.Must(store, settings.GPUMinClock)
	prevHi := mirror.Must(store, settings.GPUMaxClock)

	gotLo, gotHi, err := env.Gateway.SetGPUClockLimits(ctx, lo, hi)
	if err != nil {
		return s, err
	}
	mirror.Set(store, settings.GPUMinClock, ptr(gotLo))
	mirror.Set(store, settings.GPUMaxClock, ptr(gotHi))
	if is(prevLo, gotLo) && is(prevHi, gotHi) {
		return s, nil
	}

	return s.Next(store), nil
}

func setPPT(ctx context.Context, env *Env, s state.GPU, fast, slow int) (state.GPU, error) {
	store := env.Store
	prevFast := mirror.Must(store, settings.GPUFastPPT)
	prevSlow := mirror.Must(store, settings.GPUSlowPPT)

	gotFast, gotSlow, err := env.Gateway.SetGPUPPT(ctx, fast, slow)
	if err != nil {
		return s, err
	}
	mirror.Set(store, settings.GPUFastPPT, ptr(gotFast))
	mirror.Set(store, settings.GPUSlowPPT, ptr(gotSlow))
	if is(prevFast, gotFast) && is(prevSlow, gotSlow) {
		return s, nil
	}

	return s.Next(store), nil
}
