package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/reducer"
)

// noCore means the action applies to the aggregate, not a selected core.
const noCore = -1

type actionSpec struct {
	usage string
	parse func(arg string, core int) (reducer.Action, error)
}

var actionTable = map[reducer.Domain]map[string]actionSpec{
	reducer.DomainBattery: {
		"refresh": {"", func(string, int) (reducer.Action, error) { return reducer.BatteryRefresh{}, nil }},
		"charge-rate": {"<mA|on|off>", func(arg string, _ int) (reducer.Action, error) {
			return intOrToggle(arg,
				func(v int) reducer.Action { return reducer.SetChargeRate{Rate: v} },
				func(on bool) reducer.Action { return reducer.ToggleChargeRate{On: on} })
		}},
		"charge-mode": {"<mode|on|off>", func(arg string, _ int) (reducer.Action, error) {
			if on, err := parseSwitch(arg); err == nil {
				return reducer.ToggleChargeMode{On: on}, nil
			}
			if arg == "" {
				return nil, invalidArg("charge-mode needs a mode")
			}
			return reducer.SetChargeMode{Mode: arg}, nil
		}},
		"charge-limit": {"<percent|on|off>", func(arg string, _ int) (reducer.Action, error) {
			if on, err := parseSwitch(arg); err == nil {
				return reducer.ToggleChargeLimit{On: on}, nil
			}
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return nil, invalidArg(fmt.Sprintf("charge-limit %q is not a number", arg))
			}
			return reducer.SetChargeLimit{Percent: v}, nil
		}},
	},
	reducer.DomainCPU: {
		"refresh": {"", func(string, int) (reducer.Action, error) { return reducer.CPURefresh{}, nil }},
		"smt":     {"<on|off>", switchAction(func(on bool) reducer.Action { return reducer.SetSMT{On: on} })},
		"online-count": {"<n>", func(arg string, _ int) (reducer.Action, error) {
			n, err := parseInt(arg)
			if err != nil {
				return nil, err
			}
			return reducer.SetOnlineCount{Count: n}, nil
		}},
		"core-online": {"<on|off> --core N", func(arg string, core int) (reducer.Action, error) {
			if core == noCore {
				return nil, invalidArg("core-online needs --core")
			}
			on, err := parseSwitch(arg)
			if err != nil {
				return nil, err
			}
			return reducer.SetCoreOnline{Online: on}, nil
		}},
		"governor": {"<name>", func(arg string, _ int) (reducer.Action, error) {
			if arg == "" {
				return nil, invalidArg("governor needs a name")
			}
			return reducer.SetGovernor{Governor: arg}, nil
		}},
		"min-clock": {"<MHz>", func(arg string, core int) (reducer.Action, error) {
			v, err := parseInt(arg)
			if err != nil {
				return nil, err
			}
			if core != noCore {
				return reducer.SetCoreMinClock{MHz: v}, nil
			}
			return reducer.SetMinClock{MHz: v}, nil
		}},
		"max-clock": {"<MHz>", func(arg string, core int) (reducer.Action, error) {
			v, err := parseInt(arg)
			if err != nil {
				return nil, err
			}
			if core != noCore {
				return reducer.SetCoreMaxClock{MHz: v}, nil
			}
			return reducer.SetMaxClock{MHz: v}, nil
		}},
		"clocks": {"<on|off>", func(arg string, core int) (reducer.Action, error) {
			on, err := parseSwitch(arg)
			if err != nil {
				return nil, err
			}
			if core != noCore {
				return reducer.ToggleCoreClocks{On: on}, nil
			}
			return reducer.ToggleClocks{On: on}, nil
		}},
	},
	reducer.DomainGPU: {
		"slow-memory": {"<on|off>", switchAction(func(on bool) reducer.Action { return reducer.SetSlowMemory{On: on} })},
		"clocks":      {"<on|off>", switchAction(func(on bool) reducer.Action { return reducer.ToggleGPUClocks{On: on} })},
		"ppt":         {"<on|off>", switchAction(func(on bool) reducer.Action { return reducer.TogglePPT{On: on} })},
		"min-clock":   {"<MHz>", intAction(func(v int) reducer.Action { return reducer.SetGPUMinClock{MHz: v} })},
		"max-clock":   {"<MHz>", intAction(func(v int) reducer.Action { return reducer.SetGPUMaxClock{MHz: v} })},
		"fast-ppt":    {"<mW>", intAction(func(v int) reducer.Action { return reducer.SetFastPPT{MilliWatts: v} })},
		"slow-ppt":    {"<mW>", intAction(func(v int) reducer.Action { return reducer.SetSlowPPT{MilliWatts: v} })},
	},
	reducer.DomainGeneral: {
		"refresh":         {"", func(string, int) (reducer.Action, error) { return reducer.GeneralRefresh{}, nil }},
		"persistent":      {"<on|off>", switchAction(func(on bool) reducer.Action { return reducer.SetPersistent{On: on} })},
		"system-defaults": {"", func(string, int) (reducer.Action, error) { return reducer.LoadSystemDefaults{}, nil }},
		"apply":           {"", func(string, int) (reducer.Action, error) { return reducer.ApplyNow{}, nil }},
		"dismiss": {"<message id>", func(arg string, _ int) (reducer.Action, error) {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return nil, invalidArg(fmt.Sprintf("message id %q is not a number", arg))
			}
			return reducer.DismissMessage{ID: id}, nil
		}},
	},
}

// parseAction builds the action named name in domain from its command line
// argument. core is the --core flag, or noCore.
func parseAction(domain, name, arg string, core int) (reducer.Action, error) {
	errFactory := errors.New()

	actions, ok := actionTable[reducer.Domain(domain)]
	if !ok {
		return nil, errFactory.WithData(errors.ErrInvalidArgument, fmt.Sprintf("unknown domain %q", domain))
	}
	spec, ok := actions[name]
	if !ok {
		return nil, errFactory.WithData(errors.ErrInvalidArgument,
			fmt.Sprintf("unknown %s action %q, want one of %s", domain, name, strings.Join(actionNames(actions), ", ")))
	}

	return spec.parse(strings.TrimSpace(arg), core)
}

func actionNames(actions map[string]actionSpec) []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// usage lists every action for the set command's help text.
func usage() string {
	domains := make([]string, 0, len(actionTable))
	for d := range actionTable {
		domains = append(domains, string(d))
	}
	sort.Strings(domains)

	var b strings.Builder
	for _, d := range domains {
		actions := actionTable[reducer.Domain(d)]
		for _, name := range actionNames(actions) {
			fmt.Fprintf(&b, "  %s %s %s\n", d, name, actions[name].usage)
		}
	}

	return b.String()
}

func parseSwitch(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return false, invalidArg(fmt.Sprintf("%q is not on or off", arg))
	}
}

func parseInt(arg string) (int, error) {
	v, err := strconv.Atoi(arg)
	if err != nil {
		return 0, invalidArg(fmt.Sprintf("%q is not an integer", arg))
	}

	return v, nil
}

func intOrToggle(arg string, set func(int) reducer.Action, toggle func(bool) reducer.Action) (reducer.Action, error) {
	if v, err := strconv.Atoi(arg); err == nil {
		return set(v), nil
	}
	on, err := parseSwitch(arg)
	if err != nil {
		return nil, err
	}

	return toggle(on), nil
}

func switchAction(build func(bool) reducer.Action) func(string, int) (reducer.Action, error) {
	return func(arg string, _ int) (reducer.Action, error) {
		on, err := parseSwitch(arg)
		if err != nil {
			return nil, err
		}
		return build(on), nil
	}
}

func intAction(build func(int) reducer.Action) func(string, int) (reducer.Action, error) {
	return func(arg string, _ int) (reducer.Action, error) {
		v, err := parseInt(arg)
		if err != nil {
			return nil, err
		}
		return build(v), nil
	}
}

func invalidArg(msg string) error {
	return errors.New().WithData(errors.ErrInvalidArgument, msg)
}
