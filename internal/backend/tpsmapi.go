package backend

import (
	"regexp"
	"strings"
	"time"

	"github.com/markusressel/battctl/internal/configuration"
	"github.com/markusressel/battctl/internal/util"
)

// Sysfs attribute names of the tp_smapi battery tree.
const (
	SmapiStartFile     = "start_charge_thresh"
	SmapiStopFile      = "stop_charge_thresh"
	SmapiDischargeFile = "force_discharge"
	SmapiModule        = "tp_smapi"
)

// Models where tp_smapi loads but rejects threshold and discharge writes.
// Sandy Bridge generation embedded controllers only answer the read side
// of the SMAPI protocol.
var smapiReadOnlyModels = []string{
	"X220", "X230", "T420", "T430", "T520", "T530", "W520", "W530",
}

func probeTpsmapi() ProbeResult {
	return probeTpsmapiAt(
		SmapiBasePath,
		IgnoredUnitPattern(),
		configuration.CurrentConfig.Tpsmapi.Enable,
		util.IsThinkPad(),
		util.ProductVersion(),
		smapiModuleResolvable,
	)
}

// smapiModuleResolvable reports whether the tp_smapi module is installed
// for the running kernel, mirroring the tool-metadata check of the legacy
// backend.
func smapiModuleResolvable() bool {
	_, err := util.SafeCmdExecution("modinfo", []string{"-n", SmapiModule}, 2*time.Second)
	return err == nil
}

func probeTpsmapiAt(base string, ignored *regexp.Regexp, enabled bool, isThinkPad bool, model string, moduleResolvable func() bool) ProbeResult {
	uniform := func(s Status) ProbeResult {
		return ProbeResult{Read: s, Threshold: s, Discharge: s}
	}

	if !util.FileExists(base) {
		// tree absent: not this hardware family, or the module is simply
		// missing on an otherwise eligible machine
		if !isThinkPad {
			return uniform(StatusHardwareUnsupported)
		}
		if moduleResolvable() {
			return uniform(StatusModuleNotLoaded)
		}
		return uniform(StatusModuleNotInstalled)
	}

	if !enabled {
		return uniform(StatusDisabledByConfig)
	}

	if len(SmapiBatteries(base, ignored)) == 0 {
		return uniform(StatusDeviceClassUnsupported)
	}

	result := uniform(StatusSupported)
	if isSmapiReadOnlyModel(model) {
		result.Threshold = StatusReadOnly
		result.Discharge = StatusReadOnly
	}
	return result
}

func isSmapiReadOnlyModel(model string) bool {
	model = strings.ToUpper(model)
	for _, family := range smapiReadOnlyModels {
		if strings.Contains(model, family) {
			return true
		}
	}
	return false
}
