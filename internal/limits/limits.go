// Package limits describes the capability limits reported by the remote
// settings authority: per-domain ranges, step sizes and option lists.
package limits

// Range is an inclusive [Min, Max] bound.
type Range struct {
	Min int `json:"min" toml:"min"`
	Max int `json:"max" toml:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Limits is the full capability descriptor, fetched once per full reload.
type Limits struct {
	Battery Battery `json:"battery" toml:"battery"`
	CPU     CPUs    `json:"cpu" toml:"cpu"`
	GPU     GPU     `json:"gpu" toml:"gpu"`
	General General `json:"general" toml:"general"`
}

type Battery struct {
	ChargeCurrent     *Range   `json:"charge_current" toml:"charge_current,omitempty"`
	ChargeCurrentStep int      `json:"charge_current_step" toml:"charge_current_step"`
	ChargeModes       []string `json:"charge_modes" toml:"charge_modes"`
	ChargeLimit       *Range   `json:"charge_limit" toml:"charge_limit,omitempty"`
	ChargeLimitStep   int      `json:"charge_limit_step" toml:"charge_limit_step"`
}

// CPU holds the limits of a single logical core.
type CPU struct {
	ClockMinLimits *Range   `json:"clock_min_limits" toml:"clock_min_limits,omitempty"`
	ClockMaxLimits *Range   `json:"clock_max_limits" toml:"clock_max_limits,omitempty"`
	ClockStep      int      `json:"clock_step" toml:"clock_step"`
	Governors      []string `json:"governors" toml:"governors"`
}

type CPUs struct {
	CPUs       []CPU    `json:"cpus" toml:"cpus"`
	Count      int      `json:"count" toml:"count"`
	SMTCapable bool     `json:"smt_capable" toml:"smt_capable"`
	Governors  []string `json:"governors" toml:"governors"`
}

// Core returns the limits for core i. Backends may report a single entry
// that applies to every core; out-of-range indices fall back to it.
func (c CPUs) Core(i int) CPU {
	if i >= 0 && i < len(c.CPUs) {
		return c.CPUs[i]
	}
	if len(c.CPUs) > 0 {
		return c.CPUs[0]
	}

	return CPU{}
}

// GovernorOptions returns the governors offered for core i, preferring the
// per-core list over the domain-wide one.
func (c CPUs) GovernorOptions(i int) []string {
	if g := c.Core(i).Governors; len(g) > 0 {
		return g
	}

	return c.Governors
}

type GPU struct {
	FastPPTLimits        *Range `json:"fast_ppt_limits" toml:"fast_ppt_limits,omitempty"`
	SlowPPTLimits        *Range `json:"slow_ppt_limits" toml:"slow_ppt_limits,omitempty"`
	PPTStep              int    `json:"ppt_step" toml:"ppt_step"`
	ClockMinLimits       *Range `json:"clock_min_limits" toml:"clock_min_limits,omitempty"`
	ClockMaxLimits       *Range `json:"clock_max_limits" toml:"clock_max_limits,omitempty"`
	ClockStep            int    `json:"clock_step" toml:"clock_step"`
	MemoryControlCapable bool   `json:"memory_control_capable" toml:"memory_control_capable"`
}

type General struct{}
