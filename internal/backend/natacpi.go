package backend

import (
	"path/filepath"
	"regexp"

	"github.com/markusressel/battctl/internal/configuration"
	"github.com/markusressel/battctl/internal/util"
)

// Threshold attribute names, newest first. The charge_control_* pair is the
// upstream power_supply class interface; the charge_*_threshold pair is the
// older thinkpad_acpi spelling.
var (
	NatacpiStartFiles = []string{"charge_control_start_threshold", "charge_start_threshold"}
	NatacpiStopFiles  = []string{"charge_control_end_threshold", "charge_stop_threshold"}
)

// NatacpiDischargeFile selects between charging behaviours, one of which is
// force-discharge.
const NatacpiDischargeFile = "charge_behaviour"

// thresholdKernelMajor/Minor is the first kernel generation shipping
// charge_control_* support for this hardware.
const (
	thresholdKernelMajor = 4
	thresholdKernelMinor = 19
)

func probeNatacpi() ProbeResult {
	return probeNatacpiAt(
		PowerSupplyPath,
		IgnoredUnitPattern(),
		configuration.CurrentConfig.Natacpi.Enable,
		util.KernelAtLeast(thresholdKernelMajor, thresholdKernelMinor),
	)
}

func probeNatacpiAt(root string, ignored *regexp.Regexp, enabled bool, kernelHasThresholds bool) ProbeResult {
	result := ProbeResult{
		Read:      StatusHardwareUnsupported,
		Threshold: StatusHardwareUnsupported,
		Discharge: StatusHardwareUnsupported,
	}

	batteries := PowerSupplyBatteries(root, ignored)
	if len(batteries) == 0 {
		// distinguish "no batteries at all" from "units exist, none is a
		// standard battery"
		if util.FileExists(root) {
			result.Read = StatusDeviceClassUnsupported
			result.Threshold = StatusDeviceClassUnsupported
			result.Discharge = StatusDeviceClassUnsupported
		}
		return result
	}
	result.Read = StatusSupported

	dir := batteries[0]

	if startPath := FindNatacpiFile(dir, NatacpiStartFiles); startPath != "" {
		if util.FileReadable(startPath) {
			result.Threshold = StatusSupported
		} else if kernelHasThresholds {
			// the attribute is there and the kernel generation supports it,
			// so the firmware (or a driver option) has switched it off
			result.Threshold = StatusDisabledByConfig
		} else {
			result.Threshold = StatusHardwareUnsupported
		}
	}

	dischargePath := filepath.Join(dir, NatacpiDischargeFile)
	if util.FileReadable(dischargePath) {
		result.Discharge = StatusSupported
	}

	if !enabled {
		// user override wins even over working hardware; reads through the
		// power_supply class stay available since nothing is written there
		if result.Threshold == StatusSupported {
			result.Threshold = StatusDisabledByConfig
		}
		if result.Discharge == StatusSupported {
			result.Discharge = StatusDisabledByConfig
		}
	}

	return result
}

// FindNatacpiFile returns the first existing candidate attribute in dir,
// or "" if none exists.
func FindNatacpiFile(dir string, candidates []string) string {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if util.FileExists(path) {
			return path
		}
	}
	return ""
}

// IgnoredUnitPattern returns the configured atypical-unit filter, falling
// back to the built-in default when unset or invalid.
func IgnoredUnitPattern() *regexp.Regexp {
	pattern := configuration.CurrentConfig.IgnoredBatteryPattern
	if pattern == "" {
		pattern = configuration.DefaultIgnoredBatteryPattern
	}
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		// validated at startup, fall back to the built-in pattern
		return regexp.MustCompile(configuration.DefaultIgnoredBatteryPattern)
	}
	return compiled
}
