package backend

// Remote function names. The authority registers exactly these.
const (
	CallInfo = "V_INFO"

	CallBatteryCurrentNow       = "BATTERY_current_now"
	CallBatteryChargeNow        = "BATTERY_charge_now"
	CallBatteryChargeFull       = "BATTERY_charge_full"
	CallBatteryChargeDesign     = "BATTERY_charge_design"
	CallBatteryChargePower      = "BATTERY_charge_power"
	CallBatteryGetChargeRate    = "BATTERY_get_charge_rate"
	CallBatterySetChargeRate    = "BATTERY_set_charge_rate"
	CallBatteryUnsetChargeRate  = "BATTERY_unset_charge_rate"
	CallBatteryGetChargeMode    = "BATTERY_get_charge_mode"
	CallBatterySetChargeMode    = "BATTERY_set_charge_mode"
	CallBatteryUnsetChargeMode  = "BATTERY_unset_charge_mode"
	CallBatteryGetChargeLimit   = "BATTERY_get_charge_limit"
	CallBatterySetChargeLimit   = "BATTERY_set_charge_limit"
	CallBatteryUnsetChargeLimit = "BATTERY_unset_charge_limit"
	CallCPUSetSMT               = "CPU_set_smt"
	CallCPUGetSMT               = "CPU_get_smt"
	CallCPUSetOnline            = "CPU_set_online"
	CallCPUSetOnlines           = "CPU_set_onlines"
	CallCPUGetOnlines           = "CPU_get_onlines"
	CallCPUSetClockLimits       = "CPU_set_clock_limits"
	CallCPUGetClockLimits       = "CPU_get_clock_limits"
	CallCPUUnsetClockLimits     = "CPU_unset_clock_limits"
	CallCPUSetGovernor          = "CPU_set_governor"
	CallCPUGetGovernors         = "CPU_get_governors"
	CallGPUSetPPT               = "GPU_set_ppt"
	CallGPUGetPPT               = "GPU_get_ppt"
	CallGPUUnsetPPT             = "GPU_unset_ppt"
	CallGPUSetClockLimits       = "GPU_set_clock_limits"
	CallGPUGetClockLimits       = "GPU_get_clock_limits"
	CallGPUUnsetClockLimits     = "GPU_unset_clock_limits"
	CallGPUSetSlowMemory        = "GPU_set_slow_memory"
	CallGPUGetSlowMemory        = "GPU_get_slow_memory"
	CallGeneralSetPersistent    = "GENERAL_set_persistent"
	CallGeneralGetPersistent    = "GENERAL_get_persistent"
	CallGeneralLoadSettings     = "GENERAL_load_settings"
	CallGeneralLoadDefaults     = "GENERAL_load_default_settings"
	CallGeneralLoadSystem       = "GENERAL_load_system_settings"
	CallGeneralGetName          = "GENERAL_get_name"
	CallGeneralGetPath          = "GENERAL_get_path"
	CallGeneralWaitForUnlocks   = "GENERAL_wait_for_unlocks"
	CallGeneralGetLimits        = "GENERAL_get_limits"
	CallGeneralGetProvider      = "GENERAL_get_provider"
	CallGeneralApplyNow         = "GENERAL_apply_now"
	CallGeneralOnPluggedIn      = "GENERAL_on_pluggedin"
	CallGeneralOnUnplugged      = "GENERAL_on_unplugged"
	CallMessageGet              = "MESSAGE_get"
	CallMessageDismiss          = "MESSAGE_dismiss"
)

// Variadic marks a call that takes any number of arguments.
const Variadic = -1

// catalogue maps every call name to its argument count.
var catalogue = map[string]int{
	CallInfo: 0,

	CallBatteryCurrentNow:       0,
	CallBatteryChargeNow:        0,
	CallBatteryChargeFull:       0,
	CallBatteryChargeDesign:     0,
	CallBatteryChargePower:      0,
	CallBatteryGetChargeRate:    0,
	CallBatterySetChargeRate:    1,
	CallBatteryUnsetChargeRate:  0,
	CallBatteryGetChargeMode:    0,
	CallBatterySetChargeMode:    1,
	CallBatteryUnsetChargeMode:  0,
	CallBatteryGetChargeLimit:   0,
	CallBatterySetChargeLimit:   1,
	CallBatteryUnsetChargeLimit: 0,

	CallCPUSetSMT:           1,
	CallCPUGetSMT:           0,
	CallCPUSetOnline:        2,
	CallCPUSetOnlines:       Variadic,
	CallCPUGetOnlines:       0,
	CallCPUSetClockLimits:   3,
	CallCPUGetClockLimits:   1,
	CallCPUUnsetClockLimits: 1,
	CallCPUSetGovernor:      2,
	CallCPUGetGovernors:     0,

	CallGPUSetPPT:           2,
	CallGPUGetPPT:           0,
	CallGPUUnsetPPT:         0,
	CallGPUSetClockLimits:   2,
	CallGPUGetClockLimits:   0,
	CallGPUUnsetClockLimits: 0,
	CallGPUSetSlowMemory:    1,
	CallGPUGetSlowMemory:    0,

	CallGeneralSetPersistent:  1,
	CallGeneralGetPersistent:  0,
	CallGeneralLoadSettings:   2,
	CallGeneralLoadDefaults:   0,
	CallGeneralLoadSystem:     0,
	CallGeneralGetName:        0,
	CallGeneralGetPath:        0,
	CallGeneralWaitForUnlocks: 0,
	CallGeneralGetLimits:      0,
	CallGeneralGetProvider:    1,
	CallGeneralApplyNow:       0,
	CallGeneralOnPluggedIn:    0,
	CallGeneralOnUnplugged:    0,

	CallMessageGet:     1,
	CallMessageDismiss: 1,
}

// Arity returns the argument count of a catalogued call.
func Arity(name string) (int, bool) {
	n, ok := catalogue[name]
	return n, ok
}

// Calls returns every catalogued call name.
func Calls() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	return names
}
