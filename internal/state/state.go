package state

import (
	"slices"

	"codeberg.org/mutker/powerctl/internal/limits"
	"codeberg.org/mutker/powerctl/internal/mirror"
	"codeberg.org/mutker/powerctl/internal/settings"
)

var (
	_ Snapshot[Battery] = Battery{}
	_ Snapshot[CPU]     = CPU{}
	_ Snapshot[GPU]     = GPU{}
	_ Snapshot[General] = General{}
)

type Battery struct {
	Revision     uint64
	CurrentNow   float64
	ChargeNow    float64
	ChargeFull   float64
	ChargeDesign float64
	ChargePower  float64
	ChargeRate   *int
	ChargeMode   *string
	ChargeLimit  *float64
	Limits       limits.Battery
}

// LoadBattery builds the first battery snapshot. Every battery setting must
// already be in the mirror.
func LoadBattery(s *mirror.Store) (Battery, error) {
	if err := s.Require(settings.BatteryNames...); err != nil {
		return Battery{}, err
	}

	return readBattery(s), nil
}

func readBattery(s *mirror.Store) Battery {
	return Battery{
		CurrentNow:   mirror.Must(s, settings.BatteryCurrentNow),
		ChargeNow:    mirror.Must(s, settings.BatteryChargeNow),
		ChargeFull:   mirror.Must(s, settings.BatteryChargeFull),
		ChargeDesign: mirror.Must(s, settings.BatteryChargeDesign),
		ChargePower:  mirror.Must(s, settings.BatteryChargePower),
		ChargeRate:   mirror.Must(s, settings.BatteryChargeRate),
		ChargeMode:   mirror.Must(s, settings.BatteryChargeMode),
		ChargeLimit:  mirror.Must(s, settings.BatteryChargeLimit),
		Limits:       mirror.Must(s, settings.LimitsAll).Battery,
	}
}

func (b Battery) Rev() uint64 { return b.Revision }

func (b Battery) Stamp(rev uint64) Battery {
	b.Revision = rev

	return b
}

func (b Battery) Next(s *mirror.Store) Battery {
	n := readBattery(s)
	n.Revision = b.Revision + 1

	return n
}

// CPU carries, besides the mirrored settings, the UI-local advanced-mode
// flag and selected core plus the core count and SMT capability taken
// from the limits.
type CPU struct {
	Revision     uint64
	Online       int
	StatusOnline []bool
	SMT          bool
	MinClock     *int
	MaxClock     *int
	MinMaxClocks []settings.MinMax
	Governors    []string

	AdvancedMode bool
	SelectedCore int
	TotalCores   int
	SMTCapable   bool
	Limits       limits.CPUs
}

func LoadCPU(s *mirror.Store) (CPU, error) {
	if err := s.Require(settings.CPUNames...); err != nil {
		return CPU{}, err
	}

	return readCPU(s), nil
}

func readCPU(s *mirror.Store) CPU {
	l := mirror.Must(s, settings.LimitsAll).CPU

	return CPU{
		Online:       mirror.Must(s, settings.CPUOnline),
		StatusOnline: slices.Clone(mirror.Must(s, settings.CPUStatusOnline)),
		SMT:          mirror.Must(s, settings.CPUSMT),
		MinClock:     mirror.Must(s, settings.CPUMinClock),
		MaxClock:     mirror.Must(s, settings.CPUMaxClock),
		MinMaxClocks: slices.Clone(mirror.Must(s, settings.CPUMinMaxClocks)),
		Governors:    slices.Clone(mirror.Must(s, settings.CPUGovernor)),
		TotalCores:   l.Count,
		SMTCapable:   l.SMTCapable,
		Limits:       l,
	}
}

func (c CPU) Rev() uint64 { return c.Revision }

func (c CPU) Stamp(rev uint64) CPU {
	c.Revision = rev

	return c
}

func (c CPU) Next(s *mirror.Store) CPU {
	n := readCPU(s)
	n.Revision = c.Revision + 1
	n.AdvancedMode = c.AdvancedMode
	n.SelectedCore = c.SelectedCore
	if n.SelectedCore >= n.TotalCores {
		n.SelectedCore = 0
	}

	return n
}

// WithAdvancedMode returns a new revision with only the UI-local mode
// changed. Device state is untouched.
func (c CPU) WithAdvancedMode(on bool) CPU {
	c.AdvancedMode = on
	c.Revision++

	return c
}

// WithSelectedCore returns a new revision editing core i.
func (c CPU) WithSelectedCore(i int) CPU {
	c.SelectedCore = i
	c.Revision++

	return c
}

// CoreClocks returns the bound of the selected core.
func (c CPU) CoreClocks() settings.MinMax {
	if c.SelectedCore < 0 || c.SelectedCore >= len(c.MinMaxClocks) {
		return settings.MinMax{}
	}

	return c.MinMaxClocks[c.SelectedCore]
}

// CoreGovernor returns the governor of the selected core.
func (c CPU) CoreGovernor() string {
	if c.SelectedCore < 0 || c.SelectedCore >= len(c.Governors) {
		return ""
	}

	return c.Governors[c.SelectedCore]
}

// CoreOnline reports whether the selected core is online.
func (c CPU) CoreOnline() bool {
	if c.SelectedCore < 0 || c.SelectedCore >= len(c.StatusOnline) {
		return false
	}

	return c.StatusOnline[c.SelectedCore]
}

type GPU struct {
	Revision   uint64
	FastPPT    *int
	SlowPPT    *int
	MinClock   *int
	MaxClock   *int
	SlowMemory bool
	Limits     limits.GPU
}

func LoadGPU(s *mirror.Store) (GPU, error) {
	if err := s.Require(settings.GPUNames...); err != nil {
		return GPU{}, err
	}

	return readGPU(s), nil
}

func readGPU(s *mirror.Store) GPU {
	return GPU{
		FastPPT:    mirror.Must(s, settings.GPUFastPPT),
		SlowPPT:    mirror.Must(s, settings.GPUSlowPPT),
		MinClock:   mirror.Must(s, settings.GPUMinClock),
		MaxClock:   mirror.Must(s, settings.GPUMaxClock),
		SlowMemory: mirror.Must(s, settings.GPUSlowMemory),
		Limits:     mirror.Must(s, settings.LimitsAll).GPU,
	}
}

func (g GPU) Rev() uint64 { return g.Revision }

func (g GPU) Stamp(rev uint64) GPU {
	g.Revision = rev

	return g
}

func (g GPU) Next(s *mirror.Store) GPU {
	n := readGPU(s)
	n.Revision = g.Revision + 1

	return n
}

type General struct {
	Revision   uint64
	Persistent bool
	Name       string
	Path       string
	Version    string
	Messages   []settings.Message
	Limits     limits.Limits
}

func LoadGeneral(s *mirror.Store) (General, error) {
	if err := s.Require(settings.GeneralNames...); err != nil {
		return General{}, err
	}

	return readGeneral(s), nil
}

func readGeneral(s *mirror.Store) General {
	return General{
		Persistent: mirror.Must(s, settings.GeneralPersistent),
		Name:       mirror.Must(s, settings.GeneralName),
		Path:       mirror.Must(s, settings.GeneralPath),
		Version:    mirror.Must(s, settings.VInfo),
		Messages:   slices.Clone(mirror.Must(s, settings.Messages)),
		Limits:     mirror.Must(s, settings.LimitsAll),
	}
}

func (g General) Rev() uint64 { return g.Revision }

func (g General) Stamp(rev uint64) General {
	g.Revision = rev

	return g
}

func (g General) Next(s *mirror.Store) General {
	n := readGeneral(s)
	n.Revision = g.Revision + 1

	return n
}
