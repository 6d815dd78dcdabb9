package backend

import (
	"context"
	"fmt"

	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/limits"
	"codeberg.org/mutker/powerctl/internal/settings"
)

// Gateway exposes every catalogued call as a typed method. It validates
// names and arities before anything reaches the wire and decodes the
// positional result tuple. Failures are returned, never retried.
type Gateway struct {
	inv Invoker
}

func NewGateway(inv Invoker) *Gateway {
	return &Gateway{inv: inv}
}

// Call validates and invokes a raw catalogued call.
func (g *Gateway) Call(ctx context.Context, name string, args ...any) ([]any, error) {
	errFactory := errors.New()

	arity, ok := Arity(name)
	if !ok {
		return nil, errFactory.WithData(ErrUnknownCall, name)
	}
	if arity != Variadic && arity != len(args) {
		return nil, errFactory.WithData(ErrCallArity, fmt.Sprintf("%s takes %d arguments, got %d", name, arity, len(args)))
	}
	if args == nil {
		args = []any{}
	}

	res, err := g.inv.Invoke(ctx, name, args)
	if err != nil {
		if errors.HasCode(err, ErrRemoteCall) {
			return nil, err
		}
		return nil, errFactory.Wrap(ErrRemoteCall, err).WithMessage("Remote call " + name + " failed")
	}

	return res, nil
}

func (g *Gateway) callFloat(ctx context.Context, name string, args ...any) (float64, error) {
	res, err := g.Call(ctx, name, args...)
	if err != nil {
		return 0, err
	}
	return decodeFloat(name, res, 0)
}

func (g *Gateway) callOptFloat(ctx context.Context, name string, args ...any) (*float64, error) {
	res, err := g.Call(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return decodeOptFloat(name, res, 0)
}

func (g *Gateway) callInt(ctx context.Context, name string, args ...any) (int, error) {
	res, err := g.Call(ctx, name, args...)
	if err != nil {
		return 0, err
	}
	return decodeInt(name, res, 0)
}

func (g *Gateway) callOptInt(ctx context.Context, name string, args ...any) (*int, error) {
	res, err := g.Call(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return decodeOptInt(name, res, 0)
}

func (g *Gateway) callBool(ctx context.Context, name string, args ...any) (bool, error) {
	res, err := g.Call(ctx, name, args...)
	if err != nil {
		return false, err
	}
	return decodeBool(name, res, 0)
}

func (g *Gateway) callString(ctx context.Context, name string, args ...any) (string, error) {
	res, err := g.Call(ctx, name, args...)
	if err != nil {
		return "", err
	}
	return decodeString(name, res, 0)
}

func (g *Gateway) callOptString(ctx context.Context, name string, args ...any) (*string, error) {
	res, err := g.Call(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return decodeOptString(name, res, 0)
}

// pair decodes a nullable [a, b] tuple.
func (g *Gateway) pair(ctx context.Context, name string, args ...any) (*int, *int, error) {
	res, err := g.Call(ctx, name, args...)
	if err != nil {
		return nil, nil, err
	}
	a, err := decodeOptInt(name, res, 0)
	if err != nil {
		return nil, nil, err
	}
	b, err := decodeOptInt(name, res, 1)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// setPair decodes the [a, b] echo of a set call. Both sides are required.
func (g *Gateway) setPair(ctx context.Context, name string, args ...any) (int, int, error) {
	res, err := g.Call(ctx, name, args...)
	if err != nil {
		return 0, 0, err
	}
	a, err := decodeInt(name, res, 0)
	if err != nil {
		return 0, 0, err
	}
	b, err := decodeInt(name, res, 1)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func (g *Gateway) unset(ctx context.Context, name string, args ...any) error {
	_, err := g.Call(ctx, name, args...)
	return err
}

// Info returns the backend version string.
func (g *Gateway) Info(ctx context.Context) (string, error) {
	return g.callString(ctx, CallInfo)
}

// Battery

func (g *Gateway) BatteryCurrentNow(ctx context.Context) (float64, error) {
	return g.callFloat(ctx, CallBatteryCurrentNow)
}

func (g *Gateway) BatteryChargeNow(ctx context.Context) (float64, error) {
	return g.callFloat(ctx, CallBatteryChargeNow)
}

func (g *Gateway) BatteryChargeFull(ctx context.Context) (float64, error) {
	return g.callFloat(ctx, CallBatteryChargeFull)
}

func (g *Gateway) BatteryChargeDesign(ctx context.Context) (float64, error) {
	return g.callFloat(ctx, CallBatteryChargeDesign)
}

func (g *Gateway) BatteryChargePower(ctx context.Context) (float64, error) {
	return g.callFloat(ctx, CallBatteryChargePower)
}

func (g *Gateway) BatteryChargeRate(ctx context.Context) (*int, error) {
	return g.callOptInt(ctx, CallBatteryGetChargeRate)
}

func (g *Gateway) SetBatteryChargeRate(ctx context.Context, rate int) (int, error) {
	return g.callInt(ctx, CallBatterySetChargeRate, rate)
}

func (g *Gateway) UnsetBatteryChargeRate(ctx context.Context) error {
	return g.unset(ctx, CallBatteryUnsetChargeRate)
}

func (g *Gateway) BatteryChargeMode(ctx context.Context) (*string, error) {
	return g.callOptString(ctx, CallBatteryGetChargeMode)
}

func (g *Gateway) SetBatteryChargeMode(ctx context.Context, mode string) (string, error) {
	return g.callString(ctx, CallBatterySetChargeMode, mode)
}

func (g *Gateway) UnsetBatteryChargeMode(ctx context.Context) error {
	return g.unset(ctx, CallBatteryUnsetChargeMode)
}

func (g *Gateway) BatteryChargeLimit(ctx context.Context) (*float64, error) {
	return g.callOptFloat(ctx, CallBatteryGetChargeLimit)
}

func (g *Gateway) SetBatteryChargeLimit(ctx context.Context, limit float64) (float64, error) {
	return g.callFloat(ctx, CallBatterySetChargeLimit, limit)
}

func (g *Gateway) UnsetBatteryChargeLimit(ctx context.Context) error {
	return g.unset(ctx, CallBatteryUnsetChargeLimit)
}

// CPU

// SetSMT returns the per-core online vector after the SMT change.
func (g *Gateway) SetSMT(ctx context.Context, enabled bool) ([]bool, error) {
	res, err := g.Call(ctx, CallCPUSetSMT, enabled)
	if err != nil {
		return nil, err
	}
	return decodeBools(CallCPUSetSMT, res)
}

func (g *Gateway) SMT(ctx context.Context) (bool, error) {
	return g.callBool(ctx, CallCPUGetSMT)
}

func (g *Gateway) SetCPUOnline(ctx context.Context, core int, online bool) (bool, error) {
	return g.callBool(ctx, CallCPUSetOnline, core, online)
}

// SetCPUOnlines sends one positional argument per core and returns the
// resulting online vector.
func (g *Gateway) SetCPUOnlines(ctx context.Context, onlines []bool) ([]bool, error) {
	args := make([]any, len(onlines))
	for i, v := range onlines {
		args[i] = v
	}
	res, err := g.Call(ctx, CallCPUSetOnlines, args...)
	if err != nil {
		return nil, err
	}
	return decodeBools(CallCPUSetOnlines, res)
}

func (g *Gateway) CPUOnlines(ctx context.Context) ([]bool, error) {
	res, err := g.Call(ctx, CallCPUGetOnlines)
	if err != nil {
		return nil, err
	}
	return decodeBools(CallCPUGetOnlines, res)
}

func (g *Gateway) SetCPUClockLimits(ctx context.Context, core, minMHz, maxMHz int) (int, int, error) {
	return g.setPair(ctx, CallCPUSetClockLimits, core, minMHz, maxMHz)
}

func (g *Gateway) CPUClockLimits(ctx context.Context, core int) (*int, *int, error) {
	return g.pair(ctx, CallCPUGetClockLimits, core)
}

func (g *Gateway) UnsetCPUClockLimits(ctx context.Context, core int) error {
	return g.unset(ctx, CallCPUUnsetClockLimits, core)
}

func (g *Gateway) SetCPUGovernor(ctx context.Context, core int, governor string) (string, error) {
	return g.callString(ctx, CallCPUSetGovernor, core, governor)
}

func (g *Gateway) CPUGovernors(ctx context.Context) ([]string, error) {
	res, err := g.Call(ctx, CallCPUGetGovernors)
	if err != nil {
		return nil, err
	}
	return decodeStrings(CallCPUGetGovernors, res)
}

// GPU

func (g *Gateway) SetGPUPPT(ctx context.Context, fast, slow int) (int, int, error) {
	return g.setPair(ctx, CallGPUSetPPT, fast, slow)
}

func (g *Gateway) GPUPPT(ctx context.Context) (*int, *int, error) {
	return g.pair(ctx, CallGPUGetPPT)
}

func (g *Gateway) UnsetGPUPPT(ctx context.Context) error {
	return g.unset(ctx, CallGPUUnsetPPT)
}

func (g *Gateway) SetGPUClockLimits(ctx context.Context, minMHz, maxMHz int) (int, int, error) {
	return g.setPair(ctx, CallGPUSetClockLimits, minMHz, maxMHz)
}

func (g *Gateway) GPUClockLimits(ctx context.Context) (*int, *int, error) {
	return g.pair(ctx, CallGPUGetClockLimits)
}

func (g *Gateway) UnsetGPUClockLimits(ctx context.Context) error {
	return g.unset(ctx, CallGPUUnsetClockLimits)
}

func (g *Gateway) SetGPUSlowMemory(ctx context.Context, slow bool) (bool, error) {
	return g.callBool(ctx, CallGPUSetSlowMemory, slow)
}

func (g *Gateway) GPUSlowMemory(ctx context.Context) (bool, error) {
	return g.callBool(ctx, CallGPUGetSlowMemory)
}

// General

func (g *Gateway) SetPersistent(ctx context.Context, persistent bool) (bool, error) {
	return g.callBool(ctx, CallGeneralSetPersistent, persistent)
}

func (g *Gateway) Persistent(ctx context.Context) (bool, error) {
	return g.callBool(ctx, CallGeneralGetPersistent)
}

// LoadSettings switches the backend to the profile stored under file.
func (g *Gateway) LoadSettings(ctx context.Context, file, name string) (bool, error) {
	return g.callBool(ctx, CallGeneralLoadSettings, file, name)
}

func (g *Gateway) LoadDefaultSettings(ctx context.Context) (bool, error) {
	return g.callBool(ctx, CallGeneralLoadDefaults)
}

func (g *Gateway) LoadSystemSettings(ctx context.Context) (bool, error) {
	return g.callBool(ctx, CallGeneralLoadSystem)
}

func (g *Gateway) SettingsName(ctx context.Context) (string, error) {
	return g.callString(ctx, CallGeneralGetName)
}

func (g *Gateway) SettingsPath(ctx context.Context) (string, error) {
	return g.callString(ctx, CallGeneralGetPath)
}

// WaitForUnlocks blocks until the backend has applied pending writes.
func (g *Gateway) WaitForUnlocks(ctx context.Context) (bool, error) {
	return g.callBool(ctx, CallGeneralWaitForUnlocks)
}

func (g *Gateway) Limits(ctx context.Context) (limits.Limits, error) {
	var l limits.Limits
	res, err := g.Call(ctx, CallGeneralGetLimits)
	if err != nil {
		return l, err
	}
	v, _ := at(res, 0)
	if err := decodeInto(CallGeneralGetLimits, v, 0, &l); err != nil {
		return limits.Limits{}, err
	}
	return l, nil
}

// Provider names the driver backing a domain, e.g. "cpu".
func (g *Gateway) Provider(ctx context.Context, domain string) (string, error) {
	return g.callString(ctx, CallGeneralGetProvider, domain)
}

func (g *Gateway) ApplyNow(ctx context.Context) (bool, error) {
	return g.callBool(ctx, CallGeneralApplyNow)
}

func (g *Gateway) OnPluggedIn(ctx context.Context) (bool, error) {
	return g.callBool(ctx, CallGeneralOnPluggedIn)
}

func (g *Gateway) OnUnplugged(ctx context.Context) (bool, error) {
	return g.callBool(ctx, CallGeneralOnUnplugged)
}

// Messages returns notices newer than since, or all of them when since is
// nil.
func (g *Gateway) Messages(ctx context.Context, since *int64) ([]settings.Message, error) {
	var arg any
	if since != nil {
		arg = *since
	}
	res, err := g.Call(ctx, CallMessageGet, arg)
	if err != nil {
		return nil, err
	}
	out := make([]settings.Message, len(res))
	for i, v := range res {
		if err := decodeInto(CallMessageGet, v, i, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (g *Gateway) DismissMessage(ctx context.Context, id int64) (bool, error) {
	return g.callBool(ctx, CallMessageDismiss, id)
}
