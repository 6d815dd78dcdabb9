package reducer

import (
	"context"
	"fmt"
	"slices"

	"codeberg.org/mutker/powerctl/internal/derive"
	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/mirror"
	"codeberg.org/mutker/powerctl/internal/settings"
	"codeberg.org/mutker/powerctl/internal/state"
)

// CPU reduces CPU actions.
func CPU(ctx context.Context, env *Env, s state.CPU, a Action) (state.CPU, error) {
	logAction(env, DomainCPU, a)
	store, gw := env.Store, env.Gateway

	switch act := a.(type) {
	case CPURefresh:
		return s.Next(store), nil

	case SetAdvancedMode:
		if s.AdvancedMode == act.On {
			return s, nil
		}
		return s.WithAdvancedMode(act.On), nil

	case SelectCore:
		if act.Core < 0 || act.Core >= s.TotalCores {
			errFactory := errors.New()
			return s, errFactory.WithData(ErrInvalidArgument, fmt.Sprintf("core %d out of range [0, %d)", act.Core, s.TotalCores))
		}
		if act.Core == s.SelectedCore {
			return s, nil
		}
		return s.WithSelectedCore(act.Core), nil

	case SetGovernor:
		idx := s.SelectedCore
		prev := valueAt(mirror.Must(store, settings.CPUGovernor), idx)
		if prev == act.Governor {
			return s, nil
		}
		gov, err := gw.SetCPUGovernor(ctx, idx, act.Governor)
		if err != nil {
			return s, err
		}
		governors := grow(slices.Clone(mirror.Must(store, settings.CPUGovernor)), idx+1)
		governors[idx] = gov
		mirror.Set(store, settings.CPUGovernor, governors)
		if gov == prev {
			return s, nil
		}
		return s.Next(store), nil

	case SetMinClock:
		minNow := mirror.Must(store, settings.CPUMinClock)
		maxNow := mirror.Must(store, settings.CPUMaxClock)
		if is(minNow, act.MHz) || maxNow == nil {
			return s, nil
		}
		err := setAggregateClocks(ctx, env, s.TotalCores, func() (int, int) {
			hi := mirror.Must(store, settings.CPUMaxClock)
			if hi == nil {
				hi = maxNow
			}
			return act.MHz, *hi
		})
		if err != nil {
			return s, err
		}
		return s.Next(store), nil

	case SetMaxClock:
		minNow := mirror.Must(store, settings.CPUMinClock)
		maxNow := mirror.Must(store, settings.CPUMaxClock)
		if is(maxNow, act.MHz) || minNow == nil {
			return s, nil
		}
		err := setAggregateClocks(ctx, env, s.TotalCores, func() (int, int) {
			lo := mirror.Must(store, settings.CPUMinClock)
			if lo == nil {
				lo = minNow
			}
			return *lo, act.MHz
		})
		if err != nil {
			return s, err
		}
		return s.Next(store), nil

	case SetCoreMinClock:
		idx := s.SelectedCore
		bound := valueAt(mirror.Must(store, settings.CPUMinMaxClocks), idx)
		if is(bound.Min, act.MHz) || bound.Max == nil {
			return s, nil
		}
		if err := setCoreClocks(ctx, env, idx, act.MHz, *bound.Max); err != nil {
			return s, err
		}
		return s.Next(store), nil

	case SetCoreMaxClock:
		idx := s.SelectedCore
		bound := valueAt(mirror.Must(store, settings.CPUMinMaxClocks), idx)
		if is(bound.Max, act.MHz) || bound.Min == nil {
			return s, nil
		}
		if err := setCoreClocks(ctx, env, idx, *bound.Min, act.MHz); err != nil {
			return s, err
		}
		return s.Next(store), nil

	case ToggleClocks:
		if act.On {
			core := mirror.Must(store, settings.LimitsAll).CPU.Core(0)
			if core.ClockMinLimits != nil {
				mirror.Set(store, settings.CPUMinClock, ptr(core.ClockMinLimits.Min))
			}
			if core.ClockMaxLimits != nil {
				mirror.Set(store, settings.CPUMaxClock, ptr(core.ClockMaxLimits.Max))
			}
			derive.SyncAggregateClocks(store, s.TotalCores)
			return s.Next(store), nil
		}
		for i := range s.TotalCores {
			if err := gw.UnsetCPUClockLimits(ctx, i); err != nil {
				return s, err
			}
		}
		if _, err := gw.WaitForUnlocks(ctx); err != nil {
			return s, err
		}
		mirror.Set[*int](store, settings.CPUMinClock, nil)
		mirror.Set[*int](store, settings.CPUMaxClock, nil)
		derive.SyncAggregateClocks(store, s.TotalCores)
		return s.Next(store), nil

	case ToggleCoreClocks:
		idx := s.SelectedCore
		if act.On {
			core := mirror.Must(store, settings.LimitsAll).CPU.Core(idx)
			var bound settings.MinMax
			if core.ClockMinLimits != nil {
				bound.Min = ptr(core.ClockMinLimits.Min)
			}
			if core.ClockMaxLimits != nil {
				bound.Max = ptr(core.ClockMaxLimits.Max)
			}
			setCoreBound(store, idx, bound)
			return s.Next(store), nil
		}
		if err := gw.UnsetCPUClockLimits(ctx, idx); err != nil {
			return s, err
		}
		setCoreBound(store, idx, settings.MinMax{})
		return s.Next(store), nil

	case SetOnlineCount:
		if act.Count == mirror.Must(store, settings.CPUOnline) {
			return s, nil
		}
		plan := derive.OnlinePlan(act.Count, s.TotalCores, mirror.Must(store, settings.CPUSMT))
		status, err := gw.SetCPUOnlines(ctx, plan)
		if err != nil {
			return s, err
		}
		derive.SyncOnlineCount(store, status)
		syncClocksIfAggregate(store, s)
		return s.Next(store), nil

	case SetSMT:
		want := act.On && s.SMTCapable
		if want == mirror.Must(store, settings.CPUSMT) {
			return s, nil
		}
		count := mirror.Must(store, settings.CPUOnline)
		status, err := gw.SetSMT(ctx, want)
		if err != nil {
			return s, err
		}
		mirror.Set(store, settings.CPUSMT, want)
		derive.SyncOnlineCount(store, status)
		plan := derive.OnlinePlan(count, s.TotalCores, want)
		status, err = gw.SetCPUOnlines(ctx, plan)
		if err != nil {
			return s, err
		}
		derive.SyncOnlineCount(store, status)
		syncClocksIfAggregate(store, s)
		return s.Next(store), nil

	case SetCoreOnline:
		idx := s.SelectedCore
		if valueAt(mirror.Must(store, settings.CPUStatusOnline), idx) == act.Online {
			return s, nil
		}
		// SMT is switched off before a single core changes.
		if mirror.Must(store, settings.CPUSMT) {
			status, err := gw.SetSMT(ctx, false)
			if err != nil {
				return s, err
			}
			mirror.Set(store, settings.CPUSMT, false)
			derive.SyncOnlineCount(store, status)
		}
		online, err := gw.SetCPUOnline(ctx, idx, act.Online)
		if err != nil {
			return s, err
		}
		status := grow(slices.Clone(mirror.Must(store, settings.CPUStatusOnline)), idx+1)
		status[idx] = online
		derive.SyncOnlineCount(store, status)
		syncClocksIfAggregate(store, s)
		return s.Next(store), nil

	default:
		return s, unhandled(DomainCPU, a)
	}
}

// setAggregateClocks applies one bound to every core in order, re-reading
// the counterpart through bounds before each call, then waits for the
// backend to settle.
func setAggregateClocks(ctx context.Context, env *Env, count int, bounds func() (int, int)) error {
	store, gw := env.Store, env.Gateway

	for i := range count {
		lo, hi := bounds()
		gotLo, gotHi, err := gw.SetCPUClockLimits(ctx, i, lo, hi)
		if err != nil {
			return err
		}
		mirror.Set(store, settings.CPUMinClock, ptr(gotLo))
		mirror.Set(store, settings.CPUMaxClock, ptr(gotHi))
		derive.SyncAggregateClocks(store, count)
	}
	_, err := gw.WaitForUnlocks(ctx)

	return err
}

func setCoreClocks(ctx context.Context, env *Env, idx, lo, hi int) error {
	gotLo, gotHi, err := env.Gateway.SetCPUClockLimits(ctx, idx, lo, hi)
	if err != nil {
		return err
	}
	setCoreBound(env.Store, idx, settings.MinMax{Min: ptr(gotLo), Max: ptr(gotHi)})

	return nil
}

func setCoreBound(store *mirror.Store, idx int, bound settings.MinMax) {
	clocks := grow(slices.Clone(mirror.Must(store, settings.CPUMinMaxClocks)), idx+1)
	clocks[idx] = bound
	mirror.Set(store, settings.CPUMinMaxClocks, clocks)
}

func syncClocksIfAggregate(store *mirror.Store, s state.CPU) {
	if !s.AdvancedMode {
		derive.SyncAggregateClocks(store, s.TotalCores)
	}
}

func valueAt[T any](xs []T, i int) T {
	var zero T
	if i < 0 || i >= len(xs) {
		return zero
	}

	return xs[i]
}

// grow extends xs with zero values to at least n elements.
func grow[T any](xs []T, n int) []T {
	if len(xs) >= n {
		return xs
	}

	return append(xs, make([]T, n-len(xs))...)
}
