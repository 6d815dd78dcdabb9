// Package settings is the catalogue of setting names mirrored from the
// remote authority, grouped by domain.
package settings

import (
	"codeberg.org/mutker/powerctl/internal/limits"
	"codeberg.org/mutker/powerctl/internal/mirror"
)

// MinMax is a per-core clock bound in MHz. A nil side is unset.
type MinMax struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

// Message is a notice published by the backend.
type Message struct {
	ID    *int64  `json:"id"`
	Title string  `json:"title"`
	Body  string  `json:"body"`
	URL   *string `json:"url"`
}

// Battery
var (
	BatteryCurrentNow   = mirror.NewKey[float64]("BATTERY_current_now")
	BatteryChargeNow    = mirror.NewKey[float64]("BATTERY_charge_now")
	BatteryChargeFull   = mirror.NewKey[float64]("BATTERY_charge_full")
	BatteryChargeDesign = mirror.NewKey[float64]("BATTERY_charge_design")
	BatteryChargePower  = mirror.NewKey[float64]("BATTERY_charge_power")
	BatteryChargeRate   = mirror.NewKey[*int]("BATTERY_charge_rate")
	BatteryChargeMode   = mirror.NewKey[*string]("BATTERY_charge_mode")
	BatteryChargeLimit  = mirror.NewKey[*float64]("BATTERY_charge_limit")
)

// CPU
var (
	CPUOnline       = mirror.NewKey[int]("CPUs_online")
	CPUStatusOnline = mirror.NewKey[[]bool]("CPUs_status_online")
	CPUSMT          = mirror.NewKey[bool]("CPUs_SMT")
	CPUMinClock     = mirror.NewKey[*int]("CPUs_min_clock")
	CPUMaxClock     = mirror.NewKey[*int]("CPUs_max_clock")
	CPUMinMaxClocks = mirror.NewKey[[]MinMax]("CPUs_minmax_clocks")
	CPUGovernor     = mirror.NewKey[[]string]("CPUs_governor")
)

// GPU
var (
	GPUFastPPT    = mirror.NewKey[*int]("GPU_fastPPT")
	GPUSlowPPT    = mirror.NewKey[*int]("GPU_slowPPT")
	GPUMinClock   = mirror.NewKey[*int]("GPU_min_clock")
	GPUMaxClock   = mirror.NewKey[*int]("GPU_max_clock")
	GPUSlowMemory = mirror.NewKey[bool]("GPU_slow_memory")
)

// General
var (
	GeneralPersistent = mirror.NewKey[bool]("GENERAL_persistent")
	GeneralName       = mirror.NewKey[string]("GENERAL_name")
	GeneralPath       = mirror.NewKey[string]("GENERAL_path")
	VInfo             = mirror.NewKey[string]("V_INFO")
	LimitsAll         = mirror.NewKey[limits.Limits]("LIMITS_all")
	Messages          = mirror.NewKey[[]Message]("MESSAGE_messages")
)

// Names of the settings each domain snapshot requires.
var (
	BatteryNames = []string{
		BatteryCurrentNow.Name(), BatteryChargeNow.Name(), BatteryChargeFull.Name(),
		BatteryChargeDesign.Name(), BatteryChargePower.Name(), BatteryChargeRate.Name(),
		BatteryChargeMode.Name(), BatteryChargeLimit.Name(), LimitsAll.Name(),
	}
	CPUNames = []string{
		CPUOnline.Name(), CPUStatusOnline.Name(), CPUSMT.Name(), CPUMinClock.Name(),
		CPUMaxClock.Name(), CPUMinMaxClocks.Name(), CPUGovernor.Name(), LimitsAll.Name(),
	}
	GPUNames = []string{
		GPUFastPPT.Name(), GPUSlowPPT.Name(), GPUMinClock.Name(), GPUMaxClock.Name(),
		GPUSlowMemory.Name(), LimitsAll.Name(),
	}
	GeneralNames = []string{
		GeneralPersistent.Name(), GeneralName.Name(), GeneralPath.Name(), VInfo.Name(),
		LimitsAll.Name(), Messages.Name(),
	}
)

// Int returns a pointer to v, for nullable settings.
func Int(v int) *int { return &v }

// Float returns a pointer to v, for nullable settings.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v, for nullable settings.
func String(v string) *string { return &v }
