package backendtest

import (
	"context"
	"encoding/json"
	"sync"

	"codeberg.org/mutker/powerctl/internal/backend"
	"codeberg.org/mutker/powerctl/internal/limits"
	"codeberg.org/mutker/powerctl/internal/settings"
)

// State is the authority's view of every setting.
type State struct {
	Version      string
	Name         string
	Path         string
	Persistent   bool
	CurrentNow   float64
	ChargeNow    float64
	ChargeFull   float64
	ChargeDesign float64
	ChargePower  float64
	ChargeRate   *int
	ChargeMode   *string
	ChargeLimit  *float64
	SMT          bool
	Online       []bool
	Clocks       []settings.MinMax
	Governors    []string
	FastPPT      *int
	SlowPPT      *int
	GPUMin       *int
	GPUMax       *int
	SlowMemory   bool
	Messages     []settings.Message
}

// Authority is a stateful fake backend. Set calls clamp into the configured
// limits and echo what was stored, like the real authority.
type Authority struct {
	*Invoker

	mu     sync.Mutex
	limits limits.Limits
	state  State
}

// NewAuthority builds an authority for l with every core online and
// nothing overridden.
func NewAuthority(l limits.Limits) *Authority {
	n := l.CPU.Count
	a := &Authority{
		Invoker: New(),
		limits:  l,
		state: State{
			Version:   "v0.0.0-test",
			Name:      settings.DefaultProfileName,
			Path:      "default_settings.json",
			Online:    make([]bool, n),
			Clocks:    make([]settings.MinMax, n),
			Governors: make([]string, n),
		},
	}
	for i := range n {
		a.state.Online[i] = true
		a.state.Governors[i] = "schedutil"
	}
	a.register()

	return a
}

// Update mutates the authority state under its lock.
func (a *Authority) Update(fn func(s *State)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(&a.state)
}

// State returns a copy of the current state.
func (a *Authority) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.state
	s.Online = append([]bool(nil), a.state.Online...)
	s.Clocks = append([]settings.MinMax(nil), a.state.Clocks...)
	s.Governors = append([]string(nil), a.state.Governors...)

	return s
}

func (a *Authority) handle(name string, fn func(s *State, args []any) []any) {
	a.On(name, func(_ context.Context, args []any) ([]any, error) {
		a.mu.Lock()
		defer a.mu.Unlock()
		return fn(&a.state, args), nil
	})
}

func (a *Authority) register() {
	l := a.limits

	a.handle(backend.CallInfo, func(s *State, _ []any) []any { return []any{s.Version} })

	a.handle(backend.CallBatteryCurrentNow, func(s *State, _ []any) []any { return []any{s.CurrentNow} })
	a.handle(backend.CallBatteryChargeNow, func(s *State, _ []any) []any { return []any{s.ChargeNow} })
	a.handle(backend.CallBatteryChargeFull, func(s *State, _ []any) []any { return []any{s.ChargeFull} })
	a.handle(backend.CallBatteryChargeDesign, func(s *State, _ []any) []any { return []any{s.ChargeDesign} })
	a.handle(backend.CallBatteryChargePower, func(s *State, _ []any) []any { return []any{s.ChargePower} })
	a.handle(backend.CallBatteryGetChargeRate, func(s *State, _ []any) []any { return []any{optInt(s.ChargeRate)} })
	a.handle(backend.CallBatterySetChargeRate, func(s *State, args []any) []any {
		v := clamp(asInt(args[0]), l.Battery.ChargeCurrent)
		s.ChargeRate = &v
		return []any{v}
	})
	a.handle(backend.CallBatteryUnsetChargeRate, func(s *State, _ []any) []any {
		s.ChargeRate = nil
		return []any{true}
	})
	a.handle(backend.CallBatteryGetChargeMode, func(s *State, _ []any) []any { return []any{optString(s.ChargeMode)} })
	a.handle(backend.CallBatterySetChargeMode, func(s *State, args []any) []any {
		v, _ := args[0].(string)
		s.ChargeMode = &v
		return []any{v}
	})
	a.handle(backend.CallBatteryUnsetChargeMode, func(s *State, _ []any) []any {
		s.ChargeMode = nil
		return []any{true}
	})
	a.handle(backend.CallBatteryGetChargeLimit, func(s *State, _ []any) []any {
		if s.ChargeLimit == nil {
			return []any{nil}
		}
		return []any{*s.ChargeLimit}
	})
	a.handle(backend.CallBatterySetChargeLimit, func(s *State, args []any) []any {
		v := asFloat(args[0])
		if r := l.Battery.ChargeLimit; r != nil {
			v = float64(clamp(int(v), r))
		}
		s.ChargeLimit = &v
		return []any{v}
	})
	a.handle(backend.CallBatteryUnsetChargeLimit, func(s *State, _ []any) []any {
		s.ChargeLimit = nil
		return []any{true}
	})

	a.handle(backend.CallCPUSetSMT, func(s *State, args []any) []any {
		v, _ := args[0].(bool)
		v = v && l.CPU.SMTCapable
		switch {
		case v == s.SMT:
		case v:
			// The sibling of the highest online even core comes back.
			up := false
			for i := len(s.Online) - 1; i >= 0; i-- {
				if s.Online[i] && !up {
					up = true
					if i%2 == 0 && i+1 < len(s.Online) {
						s.Online[i+1] = true
					}
					continue
				}
				s.Online[i] = up
			}
		default:
			for i := range s.Online {
				s.Online[i] = s.Online[i] && i%2 == 0
			}
		}
		s.SMT = v
		out := make([]any, len(s.Online))
		for i, on := range s.Online {
			out[i] = on
		}
		return out
	})
	a.handle(backend.CallCPUGetSMT, func(s *State, _ []any) []any { return []any{s.SMT} })
	a.handle(backend.CallCPUSetOnline, func(s *State, args []any) []any {
		i := asInt(args[0])
		v, _ := args[1].(bool)
		if i >= 0 && i < len(s.Online) {
			s.Online[i] = v || i == 0
			return []any{s.Online[i]}
		}
		return []any{false}
	})
	a.handle(backend.CallCPUSetOnlines, func(s *State, args []any) []any {
		out := make([]any, len(s.Online))
		for i := range s.Online {
			if i < len(args) {
				v, _ := args[i].(bool)
				s.Online[i] = v || i == 0
			}
			out[i] = s.Online[i]
		}
		return out
	})
	a.handle(backend.CallCPUGetOnlines, func(s *State, _ []any) []any {
		out := make([]any, len(s.Online))
		for i, v := range s.Online {
			out[i] = v
		}
		return out
	})
	a.handle(backend.CallCPUSetClockLimits, func(s *State, args []any) []any {
		i := asInt(args[0])
		core := l.CPU.Core(i)
		lo := clamp(asInt(args[1]), core.ClockMinLimits)
		hi := clamp(asInt(args[2]), core.ClockMaxLimits)
		if i >= 0 && i < len(s.Clocks) {
			s.Clocks[i] = settings.MinMax{Min: &lo, Max: &hi}
		}
		return []any{lo, hi}
	})
	a.handle(backend.CallCPUGetClockLimits, func(s *State, args []any) []any {
		i := asInt(args[0])
		if i < 0 || i >= len(s.Clocks) {
			return []any{nil, nil}
		}
		return []any{optInt(s.Clocks[i].Min), optInt(s.Clocks[i].Max)}
	})
	a.handle(backend.CallCPUUnsetClockLimits, func(s *State, args []any) []any {
		i := asInt(args[0])
		if i >= 0 && i < len(s.Clocks) {
			s.Clocks[i] = settings.MinMax{}
		}
		return []any{true}
	})
	a.handle(backend.CallCPUSetGovernor, func(s *State, args []any) []any {
		i := asInt(args[0])
		v, _ := args[1].(string)
		if i >= 0 && i < len(s.Governors) {
			s.Governors[i] = v
		}
		return []any{v}
	})
	a.handle(backend.CallCPUGetGovernors, func(s *State, _ []any) []any {
		out := make([]any, len(s.Governors))
		for i, v := range s.Governors {
			out[i] = v
		}
		return out
	})

	a.handle(backend.CallGPUSetPPT, func(s *State, args []any) []any {
		fast := clamp(asInt(args[0]), l.GPU.FastPPTLimits)
		slow := clamp(asInt(args[1]), l.GPU.SlowPPTLimits)
		s.FastPPT, s.SlowPPT = &fast, &slow
		return []any{fast, slow}
	})
	a.handle(backend.CallGPUGetPPT, func(s *State, _ []any) []any { return []any{optInt(s.FastPPT), optInt(s.SlowPPT)} })
	a.handle(backend.CallGPUUnsetPPT, func(s *State, _ []any) []any {
		s.FastPPT, s.SlowPPT = nil, nil
		return []any{true}
	})
	a.handle(backend.CallGPUSetClockLimits, func(s *State, args []any) []any {
		lo := clamp(asInt(args[0]), l.GPU.ClockMinLimits)
		hi := clamp(asInt(args[1]), l.GPU.ClockMaxLimits)
		s.GPUMin, s.GPUMax = &lo, &hi
		return []any{lo, hi}
	})
	a.handle(backend.CallGPUGetClockLimits, func(s *State, _ []any) []any { return []any{optInt(s.GPUMin), optInt(s.GPUMax)} })
	a.handle(backend.CallGPUUnsetClockLimits, func(s *State, _ []any) []any {
		s.GPUMin, s.GPUMax = nil, nil
		return []any{true}
	})
	a.handle(backend.CallGPUSetSlowMemory, func(s *State, args []any) []any {
		v, _ := args[0].(bool)
		s.SlowMemory = v && l.GPU.MemoryControlCapable
		return []any{s.SlowMemory}
	})
	a.handle(backend.CallGPUGetSlowMemory, func(s *State, _ []any) []any { return []any{s.SlowMemory} })

	a.handle(backend.CallGeneralSetPersistent, func(s *State, args []any) []any {
		v, _ := args[0].(bool)
		s.Persistent = v
		return []any{v}
	})
	a.handle(backend.CallGeneralGetPersistent, func(s *State, _ []any) []any { return []any{s.Persistent} })
	a.handle(backend.CallGeneralLoadSettings, func(s *State, args []any) []any {
		s.Path, _ = args[0].(string)
		s.Name, _ = args[1].(string)
		return []any{true}
	})
	a.handle(backend.CallGeneralLoadDefaults, func(s *State, _ []any) []any {
		s.Name = settings.DefaultProfileName
		s.Path = "default_settings.json"
		return []any{true}
	})
	a.handle(backend.CallGeneralLoadSystem, func(s *State, _ []any) []any {
		s.Name = "System"
		return []any{true}
	})
	a.handle(backend.CallGeneralGetName, func(s *State, _ []any) []any { return []any{s.Name} })
	a.handle(backend.CallGeneralGetPath, func(s *State, _ []any) []any { return []any{s.Path} })
	a.handle(backend.CallGeneralWaitForUnlocks, func(*State, []any) []any { return []any{true} })
	a.handle(backend.CallGeneralGetLimits, func(*State, []any) []any { return []any{l} })
	a.handle(backend.CallGeneralGetProvider, func(*State, []any) []any { return []any{"Generic"} })
	a.handle(backend.CallGeneralApplyNow, func(*State, []any) []any { return []any{true} })
	a.handle(backend.CallGeneralOnPluggedIn, func(*State, []any) []any { return []any{true} })
	a.handle(backend.CallGeneralOnUnplugged, func(*State, []any) []any { return []any{true} })

	a.handle(backend.CallMessageGet, func(s *State, _ []any) []any {
		out := make([]any, len(s.Messages))
		for i, m := range s.Messages {
			out[i] = m
		}
		return out
	})
	a.handle(backend.CallMessageDismiss, func(s *State, args []any) []any {
		id := int64(asInt(args[0]))
		kept := s.Messages[:0]
		found := false
		for _, m := range s.Messages {
			if m.ID != nil && *m.ID == id {
				found = true
				continue
			}
			kept = append(kept, m)
		}
		s.Messages = kept
		return []any{found}
	})
}

func clamp(v int, r *limits.Range) int {
	if r == nil {
		return v
	}
	return min(max(v, r.Min), r.Max)
}

func optInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func optString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}
