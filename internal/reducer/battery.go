package reducer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"codeberg.org/mutker/powerctl/internal/mirror"
	"codeberg.org/mutker/powerctl/internal/settings"
	"codeberg.org/mutker/powerctl/internal/state"
)

// defaultChargeRate is staged when the limits carry no charge-current
// range.
const defaultChargeRate = 2500

const defaultChargeLimit = 100.0

// Battery reduces battery actions.
func Battery(ctx context.Context, env *Env, s state.Battery, a Action) (state.Battery, error) {
	logAction(env, DomainBattery, a)
	store, gw := env.Store, env.Gateway

	switch act := a.(type) {
	case BatteryRefresh:
		g, gctx := errgroup.WithContext(ctx)
		var current, now, full float64
		g.Go(func() (err error) { current, err = gw.BatteryCurrentNow(gctx); return err })
		g.Go(func() (err error) { now, err = gw.BatteryChargeNow(gctx); return err })
		g.Go(func() (err error) { full, err = gw.BatteryChargeFull(gctx); return err })
		if err := g.Wait(); err != nil {
			return s, err
		}
		mirror.Set(store, settings.BatteryCurrentNow, current)
		mirror.Set(store, settings.BatteryChargeNow, now)
		mirror.Set(store, settings.BatteryChargeFull, full)
		return s.Next(store), nil

	case SetChargeRate:
		prev := mirror.Must(store, settings.BatteryChargeRate)
		if is(prev, act.Rate) {
			return s, nil
		}
		rate, err := gw.SetBatteryChargeRate(ctx, act.Rate)
		if err != nil {
			return s, err
		}
		mirror.Set(store, settings.BatteryChargeRate, ptr(rate))
		if is(prev, rate) {
			return s, nil
		}
		return s.Next(store), nil

	case ToggleChargeRate:
		if act.On {
			if mirror.Must(store, settings.BatteryChargeRate) != nil {
				return s, nil
			}
			rate := defaultChargeRate
			if r := mirror.Must(store, settings.LimitsAll).Battery.ChargeCurrent; r != nil {
				rate = r.Max
			}
			mirror.Set(store, settings.BatteryChargeRate, ptr(rate))
			return s.Next(store), nil
		}
		if err := gw.UnsetBatteryChargeRate(ctx); err != nil {
			return s, err
		}
		mirror.Set[*int](store, settings.BatteryChargeRate, nil)
		return s.Next(store), nil

	case SetChargeMode:
		prev := mirror.Must(store, settings.BatteryChargeMode)
		if is(prev, act.Mode) {
			return s, nil
		}
		mode, err := gw.SetBatteryChargeMode(ctx, act.Mode)
		if err != nil {
			return s, err
		}
		mirror.Set(store, settings.BatteryChargeMode, ptr(mode))
		if is(prev, mode) {
			return s, nil
		}
		return s.Next(store), nil

	case ToggleChargeMode:
		if act.On {
			mode := act.Mode
			if mode == "" {
				if modes := mirror.Must(store, settings.LimitsAll).Battery.ChargeModes; len(modes) > 0 {
					mode = modes[0]
				}
			}
			if mode == "" || is(mirror.Must(store, settings.BatteryChargeMode), mode) {
				return s, nil
			}
			mirror.Set(store, settings.BatteryChargeMode, ptr(mode))
			return s.Next(store), nil
		}
		if err := gw.UnsetBatteryChargeMode(ctx); err != nil {
			return s, err
		}
		mirror.Set[*string](store, settings.BatteryChargeMode, nil)
		return s.Next(store), nil

	case SetChargeLimit:
		prev := mirror.Must(store, settings.BatteryChargeLimit)
		if is(prev, act.Percent) {
			return s, nil
		}
		limit, err := gw.SetBatteryChargeLimit(ctx, act.Percent)
		if err != nil {
			return s, err
		}
		mirror.Set(store, settings.BatteryChargeLimit, ptr(limit))
		if is(prev, limit) {
			return s, nil
		}
		return s.Next(store), nil

	case ToggleChargeLimit:
		if act.On {
			if mirror.Must(store, settings.BatteryChargeLimit) != nil {
				return s, nil
			}
			limit := defaultChargeLimit
			if r := mirror.Must(store, settings.LimitsAll).Battery.ChargeLimit; r != nil {
				limit = float64(r.Max)
			}
			mirror.Set(store, settings.BatteryChargeLimit, ptr(limit))
			return s.Next(store), nil
		}
		if err := gw.UnsetBatteryChargeLimit(ctx); err != nil {
			return s, err
		}
		mirror.Set[*float64](store, settings.BatteryChargeLimit, nil)
		return s.Next(store), nil

	default:
		return s, unhandled(DomainBattery, a)
	}
}
