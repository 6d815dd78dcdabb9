package settings

import (
	"strconv"

	"codeberg.org/mutker/powerctl/internal/limits"
	"codeberg.org/mutker/powerctl/internal/mirror"
)

// DefaultProfileName is the profile name cached before the backend has
// been asked.
const DefaultProfileName = "Default"

// Seed populates every catalogued setting that is still missing with the
// offline default, so snapshots can be built before the first full reload.
// Settings already present are left alone.
func Seed(s *mirror.Store, l limits.Limits) {
	count := l.CPU.Count

	seed(s, LimitsAll, l)

	seed(s, BatteryCurrentNow, 0)
	seed(s, BatteryChargeNow, 0)
	seed(s, BatteryChargeFull, 0)
	seed(s, BatteryChargeDesign, 0)
	seed(s, BatteryChargePower, 0)
	seed[*int](s, BatteryChargeRate, nil)
	seed[*string](s, BatteryChargeMode, nil)
	seed[*float64](s, BatteryChargeLimit, nil)

	status := make([]bool, count)
	for i := range status {
		status[i] = i < count/2
	}
	governors := make([]string, count)
	for i := range governors {
		governors[i] = strconv.Itoa(i)
	}
	seed(s, CPUOnline, count/2)
	seed(s, CPUStatusOnline, status)
	seed(s, CPUSMT, false)
	seed[*int](s, CPUMinClock, nil)
	seed[*int](s, CPUMaxClock, nil)
	seed(s, CPUMinMaxClocks, make([]MinMax, count))
	seed(s, CPUGovernor, governors)

	seed[*int](s, GPUFastPPT, nil)
	seed[*int](s, GPUSlowPPT, nil)
	seed[*int](s, GPUMinClock, nil)
	seed[*int](s, GPUMaxClock, nil)
	seed(s, GPUSlowMemory, false)

	seed(s, GeneralPersistent, false)
	seed(s, GeneralName, DefaultProfileName)
	seed(s, GeneralPath, "")
	seed(s, VInfo, "")
	seed(s, Messages, []Message{})
}

func seed[T any](s *mirror.Store, key mirror.Key[T], value T) {
	if !s.Has(key.Name()) {
		mirror.Set(s, key, value)
	}
}
