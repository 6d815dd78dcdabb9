package reducer

// Battery actions

// BatteryRefresh re-reads the charge readings.
type BatteryRefresh struct{}

type SetChargeRate struct{ Rate int }

// ToggleChargeRate enables the charge-current limit with a local default,
// or unsets it on the backend.
type ToggleChargeRate struct{ On bool }

type SetChargeMode struct{ Mode string }

// ToggleChargeMode enables Mode locally, falling back to the first offered
// mode when Mode is empty, or unsets it on the backend.
type ToggleChargeMode struct {
	On   bool
	Mode string
}

type SetChargeLimit struct{ Percent float64 }

type ToggleChargeLimit struct{ On bool }

func (BatteryRefresh) Domain() Domain    { return DomainBattery }
func (SetChargeRate) Domain() Domain     { return DomainBattery }
func (ToggleChargeRate) Domain() Domain  { return DomainBattery }
func (SetChargeMode) Domain() Domain     { return DomainBattery }
func (ToggleChargeMode) Domain() Domain  { return DomainBattery }
func (SetChargeLimit) Domain() Domain    { return DomainBattery }
func (ToggleChargeLimit) Domain() Domain { return DomainBattery }

// CPU actions. Per-core actions apply to the selected core.

type CPURefresh struct{}

type SetAdvancedMode struct{ On bool }

type SelectCore struct{ Core int }

type SetGovernor struct{ Governor string }

// SetMinClock and SetMaxClock edit the aggregate bound applied to every
// core.
type SetMinClock struct{ MHz int }

type SetMaxClock struct{ MHz int }

type SetCoreMinClock struct{ MHz int }

type SetCoreMaxClock struct{ MHz int }

type ToggleClocks struct{ On bool }

type ToggleCoreClocks struct{ On bool }

// SetOnlineCount brings Count cores online, honoring the SMT layout.
type SetOnlineCount struct{ Count int }

type SetSMT struct{ On bool }

type SetCoreOnline struct{ Online bool }

func (CPURefresh) Domain() Domain       { return DomainCPU }
func (SetAdvancedMode) Domain() Domain  { return DomainCPU }
func (SelectCore) Domain() Domain       { return DomainCPU }
func (SetGovernor) Domain() Domain      { return DomainCPU }
func (SetMinClock) Domain() Domain      { return DomainCPU }
func (SetMaxClock) Domain() Domain      { return DomainCPU }
func (SetCoreMinClock) Domain() Domain  { return DomainCPU }
func (SetCoreMaxClock) Domain() Domain  { return DomainCPU }
func (ToggleClocks) Domain() Domain     { return DomainCPU }
func (ToggleCoreClocks) Domain() Domain { return DomainCPU }
func (SetOnlineCount) Domain() Domain   { return DomainCPU }
func (SetSMT) Domain() Domain           { return DomainCPU }
func (SetCoreOnline) Domain() Domain    { return DomainCPU }

// GPU actions

type SetSlowMemory struct{ On bool }

type SetGPUMinClock struct{ MHz int }

type SetGPUMaxClock struct{ MHz int }

type ToggleGPUClocks struct{ On bool }

// SetFastPPT and SetSlowPPT take milliwatts.
type SetFastPPT struct{ MilliWatts int }

type SetSlowPPT struct{ MilliWatts int }

type TogglePPT struct{ On bool }

func (SetSlowMemory) Domain() Domain   { return DomainGPU }
func (SetGPUMinClock) Domain() Domain  { return DomainGPU }
func (SetGPUMaxClock) Domain() Domain  { return DomainGPU }
func (ToggleGPUClocks) Domain() Domain { return DomainGPU }
func (SetFastPPT) Domain() Domain      { return DomainGPU }
func (SetSlowPPT) Domain() Domain      { return DomainGPU }
func (TogglePPT) Domain() Domain       { return DomainGPU }

// General actions

type GeneralRefresh struct{}

type SetPersistent struct{ On bool }

// LoadSystemDefaults drops the current profile for the system settings and
// reloads everything.
type LoadSystemDefaults struct{}

// ApplyNow asks the backend to re-apply the current settings.
type ApplyNow struct{}

type DismissMessage struct{ ID int64 }

func (GeneralRefresh) Domain() Domain     { return DomainGeneral }
func (SetPersistent) Domain() Domain      { return DomainGeneral }
func (LoadSystemDefaults) Domain() Domain { return DomainGeneral }
func (ApplyNow) Domain() Domain           { return DomainGeneral }
func (DismissMessage) Domain() Domain     { return DomainGeneral }
