package limits

import (
	"os"
	"strconv"

	"codeberg.org/mutker/powerctl/internal/errors"
	"github.com/pelletier/go-toml/v2"
)

const defaultCoreCount = 8

// Defaults returns the fallback limits used until the first full reload.
func Defaults() Limits {
	governors := make([]string, defaultCoreCount)
	for i := range governors {
		governors[i] = strconv.Itoa(i)
	}

	return Limits{
		Battery: Battery{
			ChargeCurrent:     &Range{Min: 250, Max: 2500},
			ChargeCurrentStep: 50,
			ChargeModes:       []string{},
			ChargeLimitStep:   1,
		},
		CPU: CPUs{
			CPUs: []CPU{{
				ClockMinLimits: &Range{Min: 1400, Max: 3500},
				ClockMaxLimits: &Range{Min: 500, Max: 3500},
				ClockStep:      100,
				Governors:      governors,
			}},
			Count:      defaultCoreCount,
			SMTCapable: false,
		},
		GPU: GPU{
			FastPPTLimits:  &Range{Min: 1000000, Max: 29000000},
			SlowPPTLimits:  &Range{Min: 1000000, Max: 29000000},
			PPTStep:        1000000,
			ClockMinLimits: &Range{Min: 200, Max: 1600},
			ClockMaxLimits: &Range{Min: 200, Max: 1600},
			ClockStep:      100,
		},
	}
}

// LoadFile reads fallback limits from a TOML file. An empty path yields
// Defaults().
func LoadFile(path string) (Limits, error) {
	errFactory := errors.New()

	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Limits{}, errFactory.Wrap(errors.ErrReadLimitsFile, err)
	}

	l := Defaults()
	if err := toml.Unmarshal(data, &l); err != nil {
		return Limits{}, errFactory.Wrap(errors.ErrReadLimitsFile, err)
	}

	if err := l.Validate(); err != nil {
		return Limits{}, err
	}

	return l, nil
}

// Validate checks the structural invariants the engine indexes on.
func (l Limits) Validate() error {
	errFactory := errors.New()

	if l.CPU.Count <= 0 {
		return errFactory.WithData(errors.ErrInvalidLimits, "cpu.count must be positive")
	}

	for _, r := range []*Range{
		l.Battery.ChargeCurrent, l.Battery.ChargeLimit,
		l.GPU.FastPPTLimits, l.GPU.SlowPPTLimits,
		l.GPU.ClockMinLimits, l.GPU.ClockMaxLimits,
	} {
		if r != nil && r.Min > r.Max {
			return errFactory.WithData(errors.ErrInvalidLimits, *r)
		}
	}

	for _, c := range l.CPU.CPUs {
		for _, r := range []*Range{c.ClockMinLimits, c.ClockMaxLimits} {
			if r != nil && r.Min > r.Max {
				return errFactory.WithData(errors.ErrInvalidLimits, *r)
			}
		}
	}

	return nil
}
